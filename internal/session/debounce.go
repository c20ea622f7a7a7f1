package session

// Debouncer fires after Required consecutive successful detections. A miss
// restarts the streak and so does firing. It is not safe for concurrent use.
type Debouncer struct {
	required int
	streak   int
}

// NewDebouncer returns a debouncer that needs required hits; values below 1 mean 1.
func NewDebouncer(required int) *Debouncer {
	if required < 1 {
		required = 1
	}
	return &Debouncer{required: required}
}

// Observe records one detection outcome and reports whether the trigger fired.
func (d *Debouncer) Observe(detected bool) bool {
	if !detected {
		d.streak = 0
		return false
	}
	d.streak++
	if d.streak < d.required {
		return false
	}
	d.streak = 0
	return true
}

// Streak returns the current number of consecutive hits.
func (d *Debouncer) Streak() int {
	return d.streak
}

// Reset clears the streak.
func (d *Debouncer) Reset() {
	d.streak = 0
}
