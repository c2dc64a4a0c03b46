// Package state keeps per-user dialog sessions and serializes the handling of
// events that belong to the same session.
package state

// State identifies a finite-state-machine step used in conversations.
type State string

const (
	// StateIdle indicates there is no active conversation with the user.
	StateIdle State = "idle"
	// StateAwaitingCity waits for the user to type a city name.
	StateAwaitingCity State = "awaiting_city"
	// StateAwaitingLocation waits for the user to share a location.
	StateAwaitingLocation State = "awaiting_location"
)

// Key identifies a session: one user in one chat.
type Key struct {
	ChatID int64
	UserID int64
}

// Coordinates is a shared geolocation.
type Coordinates struct {
	Latitude  float64
	Longitude float64
}

// Session stores conversation state and the input captured mid-dialog.
type Session struct {
	State State

	PendingCity     string
	PendingLocation *Coordinates

	// LastBotMessageID is the prompt to delete once the flow completes; 0 when unset.
	LastBotMessageID int
}

// Reset returns the session to idle and discards pending data.
func (s *Session) Reset() {
	*s = Session{State: StateIdle}
}

// Awaiting reports whether a flow is in progress.
func (s Session) Awaiting() bool {
	return s.State != StateIdle && s.State != ""
}
