package domain

// Status is the booking lifecycle state.
type Status string

const (
	StatusPending         Status = "PENDING"
	StatusConfirmed       Status = "CONFIRMED"
	StatusPartnerAssigned Status = "PARTNER_ASSIGNED"
	StatusOnTheWay        Status = "ON_THE_WAY"
	StatusArrived         Status = "ARRIVED"
	StatusCompleted       Status = "COMPLETED"
	StatusCancelled       Status = "CANCELLED"
)

// forward maps each status to its unique forward successor.
var forward = map[Status]Status{
	StatusPending:         StatusConfirmed,
	StatusConfirmed:       StatusPartnerAssigned,
	StatusPartnerAssigned: StatusOnTheWay,
	StatusOnTheWay:        StatusArrived,
	StatusArrived:         StatusCompleted,
}

// openStatuses are the states in which a booking counts against a partner's
// open assignment load.
var openStatuses = []Status{StatusPartnerAssigned, StatusOnTheWay, StatusArrived}

func OpenStatuses() []Status {
	out := make([]Status, len(openStatuses))
	copy(out, openStatuses)
	return out
}

func IsValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusPartnerAssigned,
		StatusOnTheWay, StatusArrived, StatusCompleted, StatusCancelled:
		return true
	default:
		return false
	}
}

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// NextForward returns the unique forward successor of s, if any.
func NextForward(s Status) (Status, bool) {
	next, ok := forward[s]
	return next, ok
}

// CanTransition reports whether a booking may move from one status to
// another. Cancellation is reachable from every non-terminal state; every
// other move must be the unique forward successor.
func CanTransition(from, to Status) bool {
	if from == to {
		return false
	}
	if to == StatusCancelled {
		return !from.Terminal()
	}
	next, ok := forward[from]
	return ok && next == to
}

// Label is the human-readable form used in customer notifications.
func (s Status) Label() string {
	switch s {
	case StatusPending:
		return "Pickup requested"
	case StatusConfirmed:
		return "Pickup confirmed"
	case StatusPartnerAssigned:
		return "Partner assigned"
	case StatusOnTheWay:
		return "Partner on the way"
	case StatusArrived:
		return "Partner arrived"
	case StatusCompleted:
		return "Pickup completed"
	case StatusCancelled:
		return "Pickup cancelled"
	default:
		return string(s)
	}
}

// Icon tags the notification row rendered for the status.
func (s Status) Icon() string {
	switch s {
	case StatusCompleted:
		return "check"
	case StatusCancelled:
		return "cross"
	default:
		return "truck"
	}
}
