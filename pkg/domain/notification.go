package domain

type NotificationKind string

const (
	NotificationSuccess    NotificationKind = "success"
	NotificationFailure    NotificationKind = "failure"
	NotificationValidation NotificationKind = "validation"
)

// Notification is a transient banner shown once on the page rendered after
// the action that produced it.
type Notification struct {
	Kind NotificationKind
	Text string
}
