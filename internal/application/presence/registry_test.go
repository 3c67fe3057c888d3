package presence

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/taskhive/taskhive/internal/application/hub"
	authzmemory "github.com/taskhive/taskhive/pkg/adapters/authz/memory"
	"github.com/taskhive/taskhive/pkg/adapters/metrics/noop"
	"github.com/taskhive/taskhive/pkg/domain"
)

const eventually = 2 * time.Second

// recordingSender collects delivered events
type recordingSender struct {
	mu     sync.Mutex
	events []domain.Event
}

func (s *recordingSender) Send(event domain.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *recordingSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func (s *recordingSender) last() domain.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.events[len(s.events)-1]
}

func newRegistryFixture(t *testing.T) (*Registry, *hub.Channels, *hub.Dispatcher) {
	t.Helper()

	channels := hub.NewChannels()
	dispatcher := hub.NewDispatcher(&hub.Config{
		Channels:    channels,
		Authorizer:  authzmemory.NewStaticAuthorizer(nil),
		Metrics:     noop.NewCollector(),
		Logger:      zap.NewNop(),
		Origin:      "test",
		QueueSize:   64,
		WorkerCount: 1,
	})
	require.NoError(t, dispatcher.Start())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = dispatcher.Shutdown(ctx)
	})

	return NewRegistry(channels, dispatcher, noop.NewCollector(), zap.NewNop()), channels, dispatcher
}

func TestOnConnect_JoinsPersonalChannelAndAnnounces(t *testing.T) {
	registry, channels, dispatcher := newRegistryFixture(t)

	newcomer, other := &recordingSender{}, &recordingSender{}
	dispatcher.Attach("c-other", other)
	registry.OnConnect("c-other", "u2", "Bea")

	dispatcher.Attach("c-new", newcomer)
	conn := registry.OnConnect("c-new", "u1", "Ana")

	require.NotNil(t, conn)
	assert.Equal(t, "u1", conn.UserID)
	assert.Contains(t, channels.ChannelsOf("c-new"), "User_u1")

	// The connect announcement reaches everyone except the new connection.
	assert.Eventually(t, func() bool { return other.count() >= 1 }, eventually, 10*time.Millisecond)
	event := other.last()
	assert.Equal(t, domain.EventTypeUserConnected, event.Type)
	assert.Equal(t, "u1", event.Data["user_id"])

	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, newcomer.count(), "new connection does not receive its own announcement")
}

func TestHeartbeat(t *testing.T) {
	registry, _, dispatcher := newRegistryFixture(t)

	dispatcher.Attach("c1", &recordingSender{})
	registry.OnConnect("c1", "u1", "Ana")

	before, ok := registry.Get("c1")
	require.True(t, ok)

	time.Sleep(5 * time.Millisecond)
	require.NoError(t, registry.Heartbeat("c1"))

	after, ok := registry.Get("c1")
	require.True(t, ok)
	assert.True(t, after.LastActivity.After(before.LastActivity))

	assert.ErrorIs(t, registry.Heartbeat("unknown"), domain.ErrConnectionNotFound)
}

func TestOnDisconnect_ClearsMembershipsAndAnnounces(t *testing.T) {
	registry, channels, dispatcher := newRegistryFixture(t)

	gone, stays := &recordingSender{}, &recordingSender{}
	dispatcher.Attach("c-gone", gone)
	dispatcher.Attach("c-stays", stays)
	registry.OnConnect("c-gone", "u1", "Ana")
	registry.OnConnect("c-stays", "u2", "Bea")
	channels.Join("c-gone", "Task_5")

	registry.OnDisconnect("c-gone")

	_, ok := registry.Get("c-gone")
	assert.False(t, ok)
	assert.Empty(t, channels.ChannelsOf("c-gone"))
	assert.NotContains(t, channels.MembersOf("Task_5"), "c-gone")

	assert.Eventually(t, func() bool {
		return stays.count() > 0 && stays.last().Type == domain.EventTypeUserDisconnected
	}, eventually, 10*time.Millisecond)
	assert.Equal(t, "u1", stays.last().Data["user_id"])

	// Repeat disconnects are a no-op
	registry.OnDisconnect("c-gone")
}

func TestListConnected_GroupsByUser(t *testing.T) {
	registry, _, dispatcher := newRegistryFixture(t)

	for _, connID := range []string{"c1", "c2", "c3"} {
		dispatcher.Attach(connID, &recordingSender{})
	}
	registry.OnConnect("c1", "u1", "Ana")
	registry.OnConnect("c2", "u1", "Ana")
	registry.OnConnect("c3", "u2", "Bea")

	presence := registry.ListConnected()

	require.Len(t, presence, 2)
	assert.Equal(t, "u1", presence[0].UserID)
	assert.Equal(t, 2, presence[0].Connections)
	assert.Equal(t, "u2", presence[1].UserID)
	assert.Equal(t, 1, presence[1].Connections)
	assert.False(t, presence[0].LastActivity.IsZero())
}

func TestSweeper_ExpiresIdleConnections(t *testing.T) {
	registry, channels, dispatcher := newRegistryFixture(t)

	dispatcher.Attach("c1", &recordingSender{})
	registry.OnConnect("c1", "u1", "Ana")

	sweeper := NewSweeper(registry, 10*time.Millisecond, 20*time.Millisecond, zap.NewNop())
	sweeper.Start()
	defer sweeper.Stop()

	// No heartbeats arrive, so the connection expires through the normal
	// disconnect path.
	assert.Eventually(t, func() bool {
		_, ok := registry.Get("c1")
		return !ok
	}, eventually, 5*time.Millisecond)
	assert.Empty(t, channels.ChannelsOf("c1"))
}

func TestSweeper_KeepsActiveConnections(t *testing.T) {
	registry, _, dispatcher := newRegistryFixture(t)

	dispatcher.Attach("c1", &recordingSender{})
	registry.OnConnect("c1", "u1", "Ana")

	sweeper := NewSweeper(registry, 10*time.Millisecond, time.Minute, zap.NewNop())
	sweeper.Start()
	defer sweeper.Stop()

	time.Sleep(50 * time.Millisecond)
	_, ok := registry.Get("c1")
	assert.True(t, ok, "connection within the idle timeout survives sweeps")
}
