package hub

import (
	"context"

	"go.uber.org/zap"

	"github.com/taskhive/taskhive/pkg/domain"
)

// TopicBroadcast is the event-bus topic carrying broadcasts between instances
const TopicBroadcast = "broadcast.events"

// StartBridge subscribes to the broadcast topic and replays events published
// by peer instances to this instance's connections. Events originating here
// are skipped; the local fan-out already delivered them.
func (d *Dispatcher) StartBridge(ctx context.Context) error {
	if d.bus == nil {
		return nil
	}

	handler := func(ctx context.Context, event domain.Event) error {
		if event.Origin == d.origin {
			return nil
		}

		d.logger.Debug("replaying remote broadcast",
			zap.String("event_id", event.ID),
			zap.String("channel", event.Channel),
			zap.String("remote_origin", event.Origin))

		// Exclusions from ToOthersInChannel are connection-local to the
		// origin instance, so channel-wide replay is correct here.
		d.fanOut(event.Channel, "", event)
		return nil
	}

	return d.bus.Subscribe(ctx, TopicBroadcast, handler)
}
