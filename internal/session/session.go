// Package session tracks one analysis flow: colour first, then body shape.
package session

import (
	"errors"
	"time"

	"github.com/example/stylecoach/internal/bodyshape"
	"github.com/example/stylecoach/internal/season"
)

// State is a step of the analysis flow.
type State string

const (
	AwaitingColor State = "AWAITING_COLOR"
	AwaitingBody  State = "AWAITING_BODY"
	Complete      State = "COMPLETE"
)

var (
	// ErrSessionComplete is returned when a result is applied after both steps finished.
	ErrSessionComplete = errors.New("session already complete")
	// ErrWrongStep is returned when a result does not match the current step.
	ErrWrongStep = errors.New("result does not match the current step")
)

// Session is the per-user analysis state. It is owned by a single caller at a time.
type Session struct {
	ID        string            `json:"id"`
	ViewerID  string            `json:"viewer_id"`
	State     State             `json:"state"`
	Color     *season.Result    `json:"color,omitempty"`
	Body      *bodyshape.Result `json:"body,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// New starts a session awaiting the colour step.
func New(id, viewerID string, now time.Time) *Session {
	return &Session{
		ID:        id,
		ViewerID:  viewerID,
		State:     AwaitingColor,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// ApplyColor records a resolved seasonal result and moves to the body step.
// Unresolved results leave the session unchanged and report false.
func (s *Session) ApplyColor(result season.Result, now time.Time) (bool, error) {
	switch s.State {
	case Complete:
		return false, ErrSessionComplete
	case AwaitingBody:
		return false, ErrWrongStep
	}
	if !result.Resolved() {
		return false, nil
	}
	s.Color = &result
	s.State = AwaitingBody
	s.UpdatedAt = now
	return true, nil
}

// ApplyBody records a resolved body-shape result and completes the session.
func (s *Session) ApplyBody(result bodyshape.Result, now time.Time) (bool, error) {
	switch s.State {
	case Complete:
		return false, ErrSessionComplete
	case AwaitingColor:
		return false, ErrWrongStep
	}
	if !result.Resolved() {
		return false, nil
	}
	s.Body = &result
	s.State = Complete
	s.UpdatedAt = now
	return true, nil
}

// Advance applies whichever result the current step expects.
func (s *Session) Advance(color season.Result, body bodyshape.Result, now time.Time) (bool, error) {
	switch s.State {
	case AwaitingColor:
		return s.ApplyColor(color, now)
	case AwaitingBody:
		return s.ApplyBody(body, now)
	default:
		return false, ErrSessionComplete
	}
}

// Reset clears both results and returns to the colour step.
func (s *Session) Reset(now time.Time) {
	s.Color = nil
	s.Body = nil
	s.State = AwaitingColor
	s.UpdatedAt = now
}

// Done reports whether both steps are finished.
func (s *Session) Done() bool {
	return s.State == Complete
}
