package service

// Event names pushed to admin dashboards.
const (
	EventSubmissionCreated  = "submission.created"
	EventSubmissionReviewed = "submission.reviewed"
	EventPayoutRequested    = "payout.requested"
	EventPayoutSettled      = "payout.settled"
	EventPlanChanged        = "subscription.changed"
)

// Notifier pushes live events to admin dashboards.
type Notifier interface {
	Publish(event string, data interface{})
}

type nopNotifier struct{}

func (nopNotifier) Publish(string, interface{}) {}

func notifierOrNop(n Notifier) Notifier {
	if n == nil {
		return nopNotifier{}
	}
	return n
}
