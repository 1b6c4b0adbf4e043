package notification

import "context"

type Repo interface {
	GetByID(ctx context.Context, id int64) (*Group, error)
}

// EmailSender dispatches one alert to a list of recipients. Fire-and-forget
// from the probing path: delivery failures are logged by the implementation,
// never surfaced back into a tick.
type EmailSender interface {
	Send(ctx context.Context, kind Kind, to []string, locals Locals) error
}
