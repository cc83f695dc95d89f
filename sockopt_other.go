// +build !linux

package main

import "syscall"

// setSocketOptions is a no-op on non-Linux platforms.
// The Linux-specific version in sockopt_linux.go tunes TCP_NODELAY and
// keepalive on the outbound CONNECT-phase socket.
func setSocketOptions(network, address string, c syscall.RawConn) error {
	return nil
}
