package hub

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/taskhive/taskhive/pkg/domain"
	"github.com/taskhive/taskhive/pkg/ports"
)

// Dispatcher fans events out to connected clients according to channel
// membership. All broadcast methods enqueue deliveries and return immediately;
// the worker pool (pool.go) drains the queue.
type Dispatcher struct {
	channels *Channels
	authz    ports.Authorizer
	bus      ports.EventBus
	metrics  ports.MetricsCollector
	logger   *zap.Logger

	// origin tags outgoing events so the event-bus bridge can skip replaying
	// this instance's own broadcasts.
	origin string

	sendersMu sync.RWMutex
	senders   map[string]ports.Sender

	queue chan delivery

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc

	workerCount int
}

// delivery is one event bound for one connection
type delivery struct {
	connID string
	sender ports.Sender
	event  domain.Event
}

// Config holds dispatcher configuration
type Config struct {
	Channels    *Channels
	Authorizer  ports.Authorizer
	EventBus    ports.EventBus // optional, enables cross-instance fan-out
	Metrics     ports.MetricsCollector
	Logger      *zap.Logger
	Origin      string
	QueueSize   int
	WorkerCount int
}

// NewDispatcher creates a new broadcast dispatcher
func NewDispatcher(cfg *Config) *Dispatcher {
	ctx, cancel := context.WithCancel(context.Background())

	return &Dispatcher{
		channels:    cfg.Channels,
		authz:       cfg.Authorizer,
		bus:         cfg.EventBus,
		metrics:     cfg.Metrics,
		logger:      cfg.Logger,
		origin:      cfg.Origin,
		senders:     make(map[string]ports.Sender),
		queue:       make(chan delivery, cfg.QueueSize),
		ctx:         ctx,
		cancel:      cancel,
		workerCount: cfg.WorkerCount,
	}
}

// Attach registers the write side of a connection. The transport calls this
// before announcing the connection to the presence registry.
func (d *Dispatcher) Attach(connID string, sender ports.Sender) {
	d.sendersMu.Lock()
	d.senders[connID] = sender
	d.sendersMu.Unlock()
}

// Detach removes the connection's sender. Events enqueued before Detach may
// still be delivered; events dispatched after it are not.
func (d *Dispatcher) Detach(connID string) {
	d.sendersMu.Lock()
	delete(d.senders, connID)
	d.sendersMu.Unlock()
}

// ToCaller delivers the event to a single connection
func (d *Dispatcher) ToCaller(connID string, event domain.Event) {
	event = d.stamp(event, "")

	d.sendersMu.RLock()
	sender, ok := d.senders[connID]
	d.sendersMu.RUnlock()
	if !ok {
		return
	}

	d.enqueue(delivery{connID: connID, sender: sender, event: event})
	d.metrics.RecordBroadcast("caller")
}

// ToChannel delivers the event to every member of the channel, including the
// caller's own connection if it is a member.
func (d *Dispatcher) ToChannel(channel string, event domain.Event) {
	event = d.stamp(event, channel)
	d.fanOut(channel, "", event)
	d.publishRemote(event)
	d.metrics.RecordBroadcast("channel")
}

// ToOthersInChannel delivers the event to every member of the channel except
// the given connection.
func (d *Dispatcher) ToOthersInChannel(channel, exceptConnID string, event domain.Event) {
	event = d.stamp(event, channel)
	d.fanOut(channel, exceptConnID, event)
	d.publishRemote(event)
	d.metrics.RecordBroadcast("others")
}

// ToAll delivers the event to every attached connection
func (d *Dispatcher) ToAll(event domain.Event) {
	event = d.stamp(event, domain.ChannelAll)
	d.fanOut(domain.ChannelAll, "", event)
	d.publishRemote(event)
	d.metrics.RecordBroadcast("all")
}

// ToAllExcept delivers the event to every attached connection except one
func (d *Dispatcher) ToAllExcept(exceptConnID string, event domain.Event) {
	event = d.stamp(event, domain.ChannelAll)
	d.fanOut(domain.ChannelAll, exceptConnID, event)
	d.publishRemote(event)
	d.metrics.RecordBroadcast("all")
}

// SystemMessage broadcasts a privileged message to all connections after
// verifying the actor's role. Unauthorized callers get no error and no
// effect; the silent no-op avoids revealing role information.
func (d *Dispatcher) SystemMessage(ctx context.Context, actor domain.Actor, message string) {
	role, err := d.authz.RoleOf(ctx, actor.ID)
	if err != nil || role != ports.RoleAdmin {
		d.logger.Debug("system message suppressed",
			zap.String("actor_id", actor.ID))
		return
	}

	d.ToAll(domain.Event{
		Type:  domain.EventTypeSystemMessage,
		Actor: actor,
		Data:  map[string]interface{}{"message": message},
	})
}

// fanOut enqueues one delivery per target connection. Channel All targets
// every attached sender; other channels target their members.
func (d *Dispatcher) fanOut(channel, exceptConnID string, event domain.Event) {
	if channel == domain.ChannelAll {
		d.sendersMu.RLock()
		targets := make(map[string]ports.Sender, len(d.senders))
		for connID, sender := range d.senders {
			targets[connID] = sender
		}
		d.sendersMu.RUnlock()

		for connID, sender := range targets {
			if connID == exceptConnID {
				continue
			}
			d.enqueue(delivery{connID: connID, sender: sender, event: event})
		}
		return
	}

	for _, connID := range d.channels.MembersOf(channel) {
		if connID == exceptConnID {
			continue
		}
		d.sendersMu.RLock()
		sender, ok := d.senders[connID]
		d.sendersMu.RUnlock()
		if !ok {
			continue
		}
		d.enqueue(delivery{connID: connID, sender: sender, event: event})
	}
}

// enqueue hands the delivery to the worker pool without blocking. A full
// queue drops the event; clients reconcile via periodic refresh.
func (d *Dispatcher) enqueue(del delivery) {
	select {
	case d.queue <- del:
		d.metrics.SetQueueDepth(len(d.queue))
	default:
		d.metrics.RecordDroppedEvent("queue_full")
		d.logger.Warn("delivery queue full, dropping event",
			zap.String("conn_id", del.connID),
			zap.String("event_type", string(del.event.Type)))
	}
}

// stamp fills in the event fields the dispatcher owns
func (d *Dispatcher) stamp(event domain.Event, channel string) domain.Event {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if channel != "" {
		event.Channel = channel
	}
	event.Origin = d.origin
	return event
}

// publishRemote forwards the event to the event bus so peer instances can
// replay it to their own connections.
func (d *Dispatcher) publishRemote(event domain.Event) {
	if d.bus == nil {
		return
	}

	if err := d.bus.Publish(d.ctx, TopicBroadcast, event); err != nil {
		d.metrics.RecordDroppedEvent("bus_publish")
		d.logger.Error("failed to publish broadcast event",
			zap.String("event_id", event.ID),
			zap.Error(err))
	}
}
