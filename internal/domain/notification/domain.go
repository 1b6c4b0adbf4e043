package notification

import "time"

// Group is a named set of destination email addresses bound to monitors via
// their notification id. The core only reads the list.
type Group struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Name      string    `json:"name"`
	Emails    []string  `json:"emails"`
	CreatedAt time.Time `json:"created_at"`
}

// Kind selects the alert template.
type Kind string

const (
	KindFailure  Kind = "failure"
	KindRecovery Kind = "recovery"
)

// Locals is the context handed to the email collaborator.
type Locals struct {
	AppName string
	AppLink string
	AppIcon string
}

type Clock interface {
	Now() time.Time
}
