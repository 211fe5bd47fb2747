package contests

import "time"

// ResolveStatus derives the lifecycle status of a contest window at now.
// The start instant counts as ongoing and the end instant as completed.
func ResolveStatus(start, end, now time.Time) Status {
	switch {
	case now.Before(start):
		return StatusUpcoming
	case now.Before(end):
		return StatusOngoing
	default:
		return StatusCompleted
	}
}

// rank orders statuses along the only legal direction of travel.
func (s Status) rank() int {
	switch s {
	case StatusUpcoming:
		return 0
	case StatusOngoing:
		return 1
	case StatusCompleted:
		return 2
	}
	return -1
}

// Terminal reports whether s can never change again.
func (s Status) Terminal() bool {
	return s == StatusCompleted
}
