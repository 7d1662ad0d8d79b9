package models

// StateCounts aggregates sessions by state. It is always recomputed from a full
// entry list and never maintained incrementally.
type StateCounts struct {
	Active     int `json:"active"`
	Waiting    int `json:"waiting"`
	Permission int `json:"permission"`
}

// CountsOf sums entries by state.
func CountsOf(entries []SessionEntry) StateCounts {
	var c StateCounts
	for _, e := range entries {
		switch e.State {
		case StateActive:
			c.Active++
		case StateWaiting:
			c.Waiting++
		case StatePermission:
			c.Permission++
		}
	}
	return c
}

// Total is the number of sessions across all states.
func (c StateCounts) Total() int {
	return c.Active + c.Waiting + c.Permission
}

// Of returns the count for a single state.
func (c StateCounts) Of(s SessionState) int {
	switch s {
	case StateActive:
		return c.Active
	case StateWaiting:
		return c.Waiting
	case StatePermission:
		return c.Permission
	}
	return 0
}

// Dominant is the highest priority state with a nonzero count. ok is false
// when there are no sessions.
func (c StateCounts) Dominant() (state SessionState, ok bool) {
	for _, s := range AllStates {
		if c.Of(s) > 0 {
			return s, true
		}
	}
	return "", false
}
