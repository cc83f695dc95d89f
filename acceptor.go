package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// Acceptor binds one TCP listener and hands each accepted connection to a
// freshly constructed Session. It is bound to a single listening address for
// its entire lifetime.
type Acceptor struct {
	listener net.Listener
	cfg      *Config
	logger   *logrus.Logger
	nextID   uint64
}

// NewAcceptor binds the configured listen port on all IPv4 interfaces.
func NewAcceptor(cfg *Config, logger *logrus.Logger) (*Acceptor, error) {
	addr := fmt.Sprintf("0.0.0.0:%d", cfg.Port)
	ln, err := net.Listen("tcp4", addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}
	return &Acceptor{listener: ln, cfg: cfg, logger: logger}, nil
}

// Addr returns the bound listen address.
func (a *Acceptor) Addr() net.Addr {
	return a.listener.Addr()
}

// Close stops the listener; any in-flight Accept call returns net.ErrClosed.
func (a *Acceptor) Close() error {
	return a.listener.Close()
}

// Serve accepts connections in a loop until the listener is closed or ctx is
// cancelled. Accept errors are logged and do not tear down the listener; it
// is re-armed on every iteration.
func (a *Acceptor) Serve(ctx context.Context) {
	a.logger.Infof("[acceptor] listening on %s", a.listener.Addr())

	go func() {
		<-ctx.Done()
		a.listener.Close()
	}()

	for {
		conn, err := a.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				a.logger.Infof("[acceptor] listener closed, stopping accept loop")
				return
			}
			a.logger.Errorf("[acceptor] accept error: %v", err)
			continue
		}

		id := atomic.AddUint64(&a.nextID, 1)
		sess := NewSession(id, conn, a.cfg, a.logger)
		go sess.Run()
	}
}
