package hub

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	authzmemory "github.com/taskhive/taskhive/pkg/adapters/authz/memory"
	eventsmemory "github.com/taskhive/taskhive/pkg/adapters/events/memory"
	"github.com/taskhive/taskhive/pkg/adapters/metrics/noop"
	"github.com/taskhive/taskhive/pkg/domain"
	"github.com/taskhive/taskhive/pkg/ports"
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

func newDispatcherFixture(t *testing.T, bus ports.EventBus, origin string) (*Dispatcher, *Channels) {
	t.Helper()

	channels := NewChannels()
	d := NewDispatcher(&Config{
		Channels:    channels,
		Authorizer:  authzmemory.NewStaticAuthorizer([]string{"admin-1"}),
		EventBus:    bus,
		Metrics:     noop.NewCollector(),
		Logger:      zap.NewNop(),
		Origin:      origin,
		QueueSize:   64,
		WorkerCount: 2,
	})
	require.NoError(t, d.Start())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = d.Shutdown(ctx)
	})

	return d, channels
}

func TestToChannel_ScopedToMembers(t *testing.T) {
	d, channels := newDispatcherFixture(t, nil, "test")

	a, b := &recordingSender{}, &recordingSender{}
	d.Attach("a", a)
	d.Attach("b", b)
	channels.Join("a", "Task_5")

	d.ToChannel("Task_5", domain.Event{Type: domain.EventTypeTaskStatusChanged})

	assert.Eventually(t, func() bool { return a.count() == 1 }, eventually, 10*time.Millisecond,
		"joined connection receives the event")
	assert.Equal(t, "Task_5", a.last().Channel)
	assert.Zero(t, b.count(), "connection outside the channel receives nothing")
}

func TestToOthersInChannel_ExcludesCaller(t *testing.T) {
	d, channels := newDispatcherFixture(t, nil, "test")

	a, b := &recordingSender{}, &recordingSender{}
	d.Attach("a", a)
	d.Attach("b", b)
	channels.Join("a", "Task_5")
	channels.Join("b", "Task_5")

	d.ToOthersInChannel("Task_5", "a", domain.Event{Type: domain.EventTypeTaskStatusChanged})

	assert.Eventually(t, func() bool { return b.count() == 1 }, eventually, 10*time.Millisecond)
	assert.Zero(t, a.count())
}

func TestToAll_ReachesEveryConnection(t *testing.T) {
	d, _ := newDispatcherFixture(t, nil, "test")

	a, b := &recordingSender{}, &recordingSender{}
	d.Attach("a", a)
	d.Attach("b", b)

	d.ToAll(domain.Event{Type: domain.EventTypeSystemMessage})

	assert.Eventually(t, func() bool { return a.count() == 1 && b.count() == 1 }, eventually, 10*time.Millisecond)
	assert.Equal(t, domain.ChannelAll, a.last().Channel)
}

func TestToCaller_SingleConnection(t *testing.T) {
	d, _ := newDispatcherFixture(t, nil, "test")

	a, b := &recordingSender{}, &recordingSender{}
	d.Attach("a", a)
	d.Attach("b", b)

	d.ToCaller("a", domain.Event{Type: domain.EventTypeTaskStatusChanged})

	assert.Eventually(t, func() bool { return a.count() == 1 }, eventually, 10*time.Millisecond)
	assert.Zero(t, b.count())
}

func TestDetach_StopsDelivery(t *testing.T) {
	d, _ := newDispatcherFixture(t, nil, "test")

	a, b := &recordingSender{}, &recordingSender{}
	d.Attach("a", a)
	d.Attach("b", b)
	d.Detach("a")

	d.ToAll(domain.Event{Type: domain.EventTypeSystemMessage})

	assert.Eventually(t, func() bool { return b.count() == 1 }, eventually, 10*time.Millisecond)
	assert.Zero(t, a.count())
}

func TestSystemMessage_AdminBroadcasts(t *testing.T) {
	d, _ := newDispatcherFixture(t, nil, "test")

	a := &recordingSender{}
	d.Attach("a", a)

	d.SystemMessage(context.Background(), domain.Actor{ID: "admin-1"}, "maintenance at noon")

	assert.Eventually(t, func() bool { return a.count() == 1 }, eventually, 10*time.Millisecond)
	event := a.last()
	assert.Equal(t, domain.EventTypeSystemMessage, event.Type)
	assert.Equal(t, "maintenance at noon", event.Data["message"])
}

func TestSystemMessage_UnauthorizedSilentNoOp(t *testing.T) {
	d, _ := newDispatcherFixture(t, nil, "test")

	a := &recordingSender{}
	d.Attach("a", a)

	// Non-admin caller: no error surfaces and nothing is sent.
	d.SystemMessage(context.Background(), domain.Actor{ID: "user-2"}, "pwned")

	time.Sleep(100 * time.Millisecond)
	assert.Zero(t, a.count())
}

func TestBridge_ReplaysRemoteEventsOnce(t *testing.T) {
	bus := eventsmemory.NewInMemoryEventBus()

	d1, c1 := newDispatcherFixture(t, bus, "instance-1")
	d2, c2 := newDispatcherFixture(t, bus, "instance-2")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, d1.StartBridge(ctx))
	require.NoError(t, d2.StartBridge(ctx))

	local, remote := &recordingSender{}, &recordingSender{}
	d1.Attach("local", local)
	d2.Attach("remote", remote)
	c1.Join("local", "Task_5")
	c2.Join("remote", "Task_5")

	d1.ToChannel("Task_5", domain.Event{Type: domain.EventTypeTaskStatusChanged})

	assert.Eventually(t, func() bool { return remote.count() == 1 }, eventually, 10*time.Millisecond,
		"peer instance replays the broadcast to its own connections")

	// The origin instance skips its own bus event: exactly one delivery.
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 1, local.count())
}
