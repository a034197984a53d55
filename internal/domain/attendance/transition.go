package attendance

// transitions lists every legal status move. Anything absent is refused.
var transitions = map[Status][]Status{
	StatusPending:  {StatusApproved, StatusRejected, StatusAbsent, StatusLeave},
	StatusApproved: {StatusAbsent, StatusLeave},
}

func CanTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// ValidateTransition returns nil when from -> to is allowed, otherwise the
// most specific refusal.
func ValidateTransition(from, to Status) error {
	switch {
	case from == to:
		return ErrAlreadyInStatus
	case CanTransition(from, to):
		return nil
	case from == StatusApproved && to == StatusRejected:
		return ErrCannotRejectApproved
	case from == StatusRejected && to == StatusApproved:
		return ErrCannotApproveRejected
	default:
		return ErrInvalidStatusTransition
	}
}
