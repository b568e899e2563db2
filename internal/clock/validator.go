package clock

// ValidateFields checks a single event's type/location combination.
func ValidateFields(t Type, loc *Location) error {
	if !t.Valid() {
		return newError(KindInvalidField, "invalid event type %q", string(t))
	}
	if loc != nil && !loc.Valid() {
		return newError(KindInvalidField, "invalid location %q", string(*loc))
	}
	if t == Come && loc == nil {
		return newError(KindInvalidField, "location required for COME")
	}
	if t != Come && loc != nil {
		return newError(KindInvalidField, "location only allowed for COME")
	}
	return nil
}

// ValidateTransition checks that next may be appended after last. A nil last means the
// user has no committed events.
func ValidateTransition(last *Event, next Type) error {
	if last == nil {
		if next != Come {
			return newError(KindIllegalTransition, "first event must be COME")
		}
		return nil
	}
	if Allowed(last.Type, next) {
		return nil
	}
	if last.Type == BreakEnd && next == Come {
		return newError(KindIllegalTransition, "already working")
	}
	return newError(KindIllegalTransition, "invalid transition %s -> %s", last.Type, next)
}

// ValidateSequence walks a user's full, time-ordered event list once and returns the
// first violation. It is used on every edit and delete against the resulting list.
func ValidateSequence(events []Event) error {
	for i := range events {
		e := &events[i]
		if err := ValidateFields(e.Type, e.Location); err != nil {
			return err
		}
		if i == 0 {
			if err := ValidateTransition(nil, e.Type); err != nil {
				return err
			}
			continue
		}

		prev := &events[i-1]
		if !e.Timestamp.After(prev.Timestamp) {
			return newError(KindNonMonotonicTimestamp, "event timestamps must be strictly increasing")
		}
		if err := ValidateTransition(prev, e.Type); err != nil {
			return err
		}
	}
	return nil
}
