package config

import (
	"net"
	"strconv"

	"github.com/danmuck/takctl/internal/protocol/session"
)

// Address joins host and port.
func (c Config) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Session maps the file settings onto the session transport config.
func (c Config) Session() session.Config {
	s := session.DefaultConfig()
	s.Address = c.Address()
	s.SecurityMode = c.SecurityMode
	s.TLS = c.TLS
	s.ConnectTimeout = c.ConnectTimeout
	s.HandshakeTimeout = c.HandshakeTimeout
	s.PollInterval = c.PollInterval
	s.ReadSize = c.ReadSize
	s.MaxBuffered = c.MaxBuffered
	return s
}
