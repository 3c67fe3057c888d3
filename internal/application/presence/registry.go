package presence

import (
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/taskhive/taskhive/internal/application/hub"
	"github.com/taskhive/taskhive/pkg/domain"
	"github.com/taskhive/taskhive/pkg/ports"
)

// Registry tracks live connections. It owns the Connection entries
// exclusively; the transport layer drives it via OnConnect, Heartbeat and
// OnDisconnect. All methods are safe for concurrent use.
type Registry struct {
	channels   *hub.Channels
	dispatcher *hub.Dispatcher
	metrics    ports.MetricsCollector
	logger     *zap.Logger

	mu    sync.RWMutex
	conns map[string]*domain.Connection
}

// NewRegistry creates a new presence registry
func NewRegistry(channels *hub.Channels, dispatcher *hub.Dispatcher, metrics ports.MetricsCollector, logger *zap.Logger) *Registry {
	return &Registry{
		channels:   channels,
		dispatcher: dispatcher,
		metrics:    metrics,
		logger:     logger,
		conns:      make(map[string]*domain.Connection),
	}
}

// OnConnect registers a new connection, auto-joins the user's personal
// channel and announces the connection to everyone else. The transport must
// attach the connection's sender to the dispatcher before calling this.
func (r *Registry) OnConnect(connID, userID, userName string) *domain.Connection {
	now := time.Now()
	conn := &domain.Connection{
		ID:           connID,
		UserID:       userID,
		UserName:     userName,
		ConnectedAt:  now,
		LastActivity: now,
	}

	r.mu.Lock()
	r.conns[connID] = conn
	total := len(r.conns)
	r.mu.Unlock()

	r.channels.Join(connID, domain.UserChannel(userID))

	r.dispatcher.ToAllExcept(connID, domain.Event{
		Type:  domain.EventTypeUserConnected,
		Actor: domain.Actor{ID: userID, Name: userName},
		Data: map[string]interface{}{
			"user_id":   userID,
			"user_name": userName,
		},
	})

	r.metrics.SetConnectedClients(total)
	r.logger.Info("connection registered",
		zap.String("conn_id", connID),
		zap.String("user_id", userID))

	return conn
}

// Heartbeat updates the connection's last-activity timestamp. No timeout
// sweep runs here; see Sweeper.
func (r *Registry) Heartbeat(connID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, ok := r.conns[connID]
	if !ok {
		return domain.ErrConnectionNotFound
	}

	conn.LastActivity = time.Now()
	return nil
}

// OnDisconnect removes the connection, clears its channel memberships and
// announces the disconnect to everyone else. It must run on every disconnect
// path, including abnormal transport termination.
func (r *Registry) OnDisconnect(connID string) {
	r.mu.Lock()
	conn, ok := r.conns[connID]
	if ok {
		delete(r.conns, connID)
	}
	total := len(r.conns)
	r.mu.Unlock()

	if !ok {
		return
	}

	r.channels.LeaveAll(connID)
	r.dispatcher.Detach(connID)

	r.dispatcher.ToAll(domain.Event{
		Type:  domain.EventTypeUserDisconnected,
		Actor: domain.Actor{ID: conn.UserID, Name: conn.UserName},
		Data: map[string]interface{}{
			"user_id":   conn.UserID,
			"user_name": conn.UserName,
		},
	})

	r.metrics.SetConnectedClients(total)
	r.metrics.SetChannelCount(r.channels.Count())
	r.logger.Info("connection removed",
		zap.String("conn_id", connID),
		zap.String("user_id", conn.UserID))
}

// Get returns the connection entry for a connection id
func (r *Registry) Get(connID string) (*domain.Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conn, ok := r.conns[connID]
	if !ok {
		return nil, false
	}
	copied := *conn
	return &copied, true
}

// ListConnected returns connections grouped by user, each with connection
// count and most recent activity. Used by the presence UI.
func (r *Registry) ListConnected() []domain.UserPresence {
	r.mu.RLock()
	byUser := make(map[string]*domain.UserPresence)
	for _, conn := range r.conns {
		p, ok := byUser[conn.UserID]
		if !ok {
			p = &domain.UserPresence{
				UserID:   conn.UserID,
				UserName: conn.UserName,
			}
			byUser[conn.UserID] = p
		}
		p.Connections++
		if conn.LastActivity.After(p.LastActivity) {
			p.LastActivity = conn.LastActivity
		}
	}
	r.mu.RUnlock()

	out := make([]domain.UserPresence, 0, len(byUser))
	for _, p := range byUser {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out
}

// idleSince returns the connection ids whose last activity is older than the
// cutoff. Used by the sweeper.
func (r *Registry) idleSince(cutoff time.Time) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var idle []string
	for id, conn := range r.conns {
		if conn.LastActivity.Before(cutoff) {
			idle = append(idle, id)
		}
	}
	return idle
}
