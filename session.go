package main

import (
	"context"
	"encoding/binary"
	"errors"
	"io"
	"net"
	"strconv"
	"sync"

	"github.com/sirupsen/logrus"
)

// SOCKS5 constants (RFC 1928), restricted to NO AUTH and CONNECT.
const (
	socks5Version = 0x05

	authNone         = 0x00
	authNoAcceptable = 0xFF

	cmdConnect = 0x01

	atypIPv4   = 0x01
	atypDomain = 0x03
	atypIPv6   = 0x04

	repSuccess = 0x00
)

// Session runs the SOCKS5 state machine for one accepted client connection.
// It owns inConn, outConn, inBuf and outBuf for its entire lifetime; none of
// the four is ever shared with another Session.
type Session struct {
	id     uint64
	inConn net.Conn
	// outConn is nil until the CONNECT phase succeeds.
	outConn net.Conn

	inBuf  []byte
	outBuf []byte

	remoteHost string
	remotePort string

	cfg    *Config
	log    *logrus.Entry
	closer sync.Once
}

// NewSession constructs a Session for a freshly accepted client connection.
// The Session does not start running until Run is called.
func NewSession(id uint64, client net.Conn, cfg *Config, logger *logrus.Logger) *Session {
	return &Session{
		id:      id,
		inConn:  client,
		cfg:     cfg,
		inBuf:   make([]byte, cfg.BufferSize),
		outBuf:  make([]byte, cfg.BufferSize),
		log:     logger.WithField("session_id", id),
	}
}

// Run drives the Session through READ_GREETING -> ... -> RELAY -> CLOSED.
// It returns once both sockets are closed and no further I/O is outstanding.
func (s *Session) Run() {
	defer s.closeSockets()

	nmethods, ok := s.readGreeting()
	if !ok {
		return
	}
	if ok := s.writeGreeting(nmethods); !ok {
		return
	}
	if !s.readRequest() {
		return
	}
	addrs, ok := s.resolve()
	if !ok {
		return
	}
	if !s.connect(addrs) {
		return
	}
	if !s.writeReply() {
		return
	}
	s.relay()
}

// readGreeting implements the READ_GREETING state: one receive into inBuf,
// validating VER and scanning METHODS for NO AUTH. The scan is bounded by the
// number of bytes actually received, not blindly by NMETHODS, per spec.
func (s *Session) readGreeting() (nmethods int, ok bool) {
	n, err := s.inConn.Read(s.inBuf)
	if err != nil {
		s.log.Errorf("[session] greeting read error: %v", err)
		return 0, false
	}
	if n < 3 || s.inBuf[0] != socks5Version {
		s.log.Errorf("[session] malformed greeting (n=%d, ver=0x%02x)", n, s.inBuf[0])
		return 0, false
	}

	declared := int(s.inBuf[1])
	limit := n - 2
	if declared < limit {
		limit = declared
	}

	found := false
	for _, m := range s.inBuf[2 : 2+limit] {
		if m == authNone {
			found = true
			break
		}
	}

	if found {
		s.inBuf[1] = authNone
	} else {
		s.inBuf[1] = authNoAcceptable
	}
	return declared, true
}

// writeGreeting implements WRITE_GREETING: write VER|METHOD back to the
// client. If no acceptable method was found, the session closes with no
// further reply body.
func (s *Session) writeGreeting(nmethods int) bool {
	if _, err := s.inConn.Write(s.inBuf[:2]); err != nil {
		s.log.Warnf("[session] greeting write error: %v", err)
		return false
	}
	if s.inBuf[1] == authNoAcceptable {
		s.log.Errorf("[session] no acceptable auth method (client offered %d)", nmethods)
		return false
	}
	return true
}

// readRequest implements READ_REQUEST: parses CMD and the address-type
// specific destination, populating remoteHost/remotePort. Only CONNECT is
// supported; any other command or address type closes the session.
func (s *Session) readRequest() bool {
	n, err := s.inConn.Read(s.inBuf)
	if err != nil {
		s.log.Errorf("[session] request read error: %v", err)
		return false
	}
	if n < 5 || s.inBuf[0] != socks5Version {
		s.log.Errorf("[session] malformed request (n=%d)", n)
		return false
	}
	if s.inBuf[1] != cmdConnect {
		s.log.Errorf("[session] unsupported command 0x%02x (only CONNECT)", s.inBuf[1])
		return false
	}

	switch atyp := s.inBuf[3]; atyp {
	case atypIPv4:
		if n != 10 {
			s.log.Errorf("[session] IPv4 request length mismatch (n=%d)", n)
			return false
		}
		s.remoteHost = net.IP(s.inBuf[4:8]).String()
		s.remotePort = strconv.Itoa(int(binary.BigEndian.Uint16(s.inBuf[8:10])))

	case atypDomain:
		dlen := int(s.inBuf[4])
		want := 5 + dlen + 2
		if n != want {
			s.log.Errorf("[session] domain request length mismatch (n=%d, want=%d)", n, want)
			return false
		}
		s.remoteHost = string(s.inBuf[5 : 5+dlen])
		s.remotePort = strconv.Itoa(int(binary.BigEndian.Uint16(s.inBuf[5+dlen : 5+dlen+2])))

	case atypIPv6:
		if n != 22 {
			s.log.Errorf("[session] IPv6 request length mismatch (n=%d)", n)
			return false
		}
		s.remoteHost = net.IP(s.inBuf[4:20]).String()
		s.remotePort = strconv.Itoa(int(binary.BigEndian.Uint16(s.inBuf[20:22])))

	default:
		s.log.Errorf("[session] unsupported address type 0x%02x", atyp)
		return false
	}
	return true
}

// resolve implements RESOLVE: looks up remoteHost, returning the candidate
// endpoints to try in CONNECT. For IP literals this is a trivial lookup; for
// domain names it performs DNS via the stdlib resolver.
func (s *Session) resolve() ([]string, bool) {
	ips, err := net.DefaultResolver.LookupHost(context.Background(), s.remoteHost)
	if err != nil {
		s.log.Errorf("[session] resolve %s failed: %v", s.remoteHost, err)
		return nil, false
	}
	return ips, true
}

// connect implements CONNECT: dials the resolved endpoints in order,
// stopping at the first success.
func (s *Session) connect(ips []string) bool {
	dialer := &net.Dialer{Control: setSocketOptions}

	var lastErr error
	for _, ip := range ips {
		target := net.JoinHostPort(ip, s.remotePort)
		conn, err := dialer.Dial("tcp", target)
		if err != nil {
			lastErr = err
			continue
		}
		s.outConn = conn
		s.log.Infof("[session] connected to %s", conn.RemoteAddr())
		return true
	}

	s.log.Errorf("[session] connect to %s:%s failed: %v", s.remoteHost, s.remotePort, lastErr)
	return false
}

// writeReply implements WRITE_REPLY. Per spec, BND.ADDR/BND.PORT report the
// remote endpoint of outConn (the upstream peer), not the server's own bound
// address — a deliberate, preserved deviation from a strict RFC 1928 reading.
func (s *Session) writeReply() bool {
	peer, ok := s.outConn.RemoteAddr().(*net.TCPAddr)
	if !ok {
		s.log.Errorf("[session] unexpected outConn.RemoteAddr() type %T", s.outConn.RemoteAddr())
		return false
	}

	s.inBuf[0] = socks5Version
	s.inBuf[1] = repSuccess
	s.inBuf[2] = 0x00

	var n int
	if v4 := peer.IP.To4(); v4 != nil {
		s.inBuf[3] = atypIPv4
		copy(s.inBuf[4:8], v4)
		binary.BigEndian.PutUint16(s.inBuf[8:10], uint16(peer.Port))
		n = 10
	} else {
		s.inBuf[3] = atypIPv6
		copy(s.inBuf[4:20], peer.IP.To16())
		binary.BigEndian.PutUint16(s.inBuf[20:22], uint16(peer.Port))
		n = 22
	}

	if _, err := s.inConn.Write(s.inBuf[:n]); err != nil {
		s.log.Warnf("[session] reply write error: %v", err)
		return false
	}
	return true
}

// relay implements RELAY: two independent half-duplex pumps. Any error on
// either (including EOF) closes both sockets immediately, which drives the
// other pump's next I/O to fail and return.
func (s *Session) relay() {
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		s.pump("client->upstream", s.inConn, s.outConn, s.inBuf)
	}()
	go func() {
		defer wg.Done()
		s.pump("upstream->client", s.outConn, s.inConn, s.outBuf)
	}()

	wg.Wait()
}

// pump implements one direction of the relay: read from src into buf, write
// the received bytes to dst, repeat. No framing — a pure byte relay.
func (s *Session) pump(direction string, src, dst net.Conn, buf []byte) {
	var total int64
	for {
		n, err := src.Read(buf)
		if n > 0 {
			if _, werr := dst.Write(buf[:n]); werr != nil {
				s.logPumpError(direction, werr)
				s.closeSockets()
				return
			}
			total += int64(n)
			s.log.Debugf("[session] %s: relayed %d bytes (total %d)", direction, n, total)
		}
		if err != nil {
			s.logPumpError(direction, err)
			s.closeSockets()
			return
		}
	}
}

func (s *Session) logPumpError(direction string, err error) {
	if errors.Is(err, io.EOF) {
		s.log.Infof("[session] %s: closed (EOF)", direction)
		return
	}
	s.log.Warnf("[session] %s: I/O error: %v", direction, err)
}

// closeSockets closes both sockets exactly once, however many pumps or
// protocol-phase failures race to call it.
func (s *Session) closeSockets() {
	s.closer.Do(func() {
		s.inConn.Close()
		if s.outConn != nil {
			s.outConn.Close()
		}
	})
}
