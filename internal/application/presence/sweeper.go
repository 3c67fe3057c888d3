package presence

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Sweeper periodically expires connections whose transport went away without
// a clean disconnect. Expired connections go through the normal disconnect
// path, so channel memberships are released and the disconnect is announced.
type Sweeper struct {
	registry    *Registry
	interval    time.Duration
	idleTimeout time.Duration
	logger      *zap.Logger

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
}

// NewSweeper creates a new idle-connection sweeper
func NewSweeper(registry *Registry, interval, idleTimeout time.Duration, logger *zap.Logger) *Sweeper {
	return &Sweeper{
		registry:    registry,
		interval:    interval,
		idleTimeout: idleTimeout,
		logger:      logger,
		stopCh:      make(chan struct{}),
	}
}

// Start starts the sweep loop
func (s *Sweeper) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	go s.run()
}

// Stop stops the sweep loop
func (s *Sweeper) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	close(s.stopCh)
}

// run is the main sweep loop
func (s *Sweeper) run() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

// sweep disconnects every connection idle past the timeout
func (s *Sweeper) sweep() {
	cutoff := time.Now().Add(-s.idleTimeout)
	idle := s.registry.idleSince(cutoff)

	for _, connID := range idle {
		s.logger.Warn("expiring idle connection",
			zap.String("conn_id", connID),
			zap.Duration("idle_timeout", s.idleTimeout))
		s.registry.OnDisconnect(connID)
	}

	if len(idle) > 0 {
		s.logger.Info("presence sweep complete",
			zap.Int("expired", len(idle)))
	}
}
