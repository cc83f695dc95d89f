// +build linux

package main

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// setSocketOptions tunes the outbound CONNECT-phase socket before connect(2).
// SO_REUSEADDR is dropped from the teacher's option set here: it matters for
// a listening socket rebinding a fixed port after restart, not for an
// outbound dial whose local port is chosen by the kernel.
func setSocketOptions(network, address string, c syscall.RawConn) error {
	var sysErr error
	err := c.Control(func(fd uintptr) {
		// Disable Nagle's algorithm for lower relay latency
		if e := unix.SetsockoptInt(int(fd), unix.IPPROTO_TCP, unix.TCP_NODELAY, 1); e != nil {
			sysErr = e
			return
		}

		// Enable TCP keepalive so a dead upstream is detected even while idle
		if e := unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_KEEPALIVE, 1); e != nil {
			sysErr = e
			return
		}

		// Keepalive idle time: 30 seconds
		if e := unix.SetsockoptInt(int(fd), unix.IPPROTO_TCP, unix.TCP_KEEPIDLE, 30); e != nil {
			sysErr = e
			return
		}

		// Keepalive interval: 10 seconds
		if e := unix.SetsockoptInt(int(fd), unix.IPPROTO_TCP, unix.TCP_KEEPINTVL, 10); e != nil {
			sysErr = e
			return
		}

		// Keepalive probes: 3
		if e := unix.SetsockoptInt(int(fd), unix.IPPROTO_TCP, unix.TCP_KEEPCNT, 3); e != nil {
			sysErr = e
			return
		}
	})
	if err != nil {
		return err
	}
	return sysErr
}
