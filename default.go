package rvideo

import (
	"sync"
	"time"
)

const defaultTimeout = 5 * time.Second

var (
	defaultServerOnce sync.Once
	defaultServer     *Server
)

// Default returns the process-wide lazily initialized default server,
// provided for convenience producers that do not need a custom timeout or
// multiple independent servers in one process. Tests should construct an
// explicit Server with NewServer instead of relying on this singleton.
func Default() *Server {
	defaultServerOnce.Do(func() {
		defaultServer = NewServer(defaultTimeout)
	})
	return defaultServer
}
