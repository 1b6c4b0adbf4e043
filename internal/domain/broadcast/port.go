package broadcast

import "context"

// TopicMonitorsUpdated carries per-user monitor set refreshes.
const TopicMonitorsUpdated = "monitors.updated"

// Publisher is the real-time fan-out port. The payload is marshaled by the
// adapter; the core never sees transport framing.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) error
}
