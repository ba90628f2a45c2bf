package session

import (
	"fmt"
	"time"

	"github.com/sosodev/duration"
)

// State is the lifecycle phase of the Scheduler.
type State int

const (
	StateIdle State = iota
	StateAwaitingFix
	StateRunning
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingFix:
		return "awaiting_fix"
	case StateRunning:
		return "running"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// MarshalText renders the state name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a state name produced by MarshalText.
func (s *State) UnmarshalText(b []byte) error {
	for _, st := range []State{StateIdle, StateAwaitingFix, StateRunning} {
		if string(b) == st.String() {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown session state %q", b)
}

// Status is what the UI layer sees on every refresh tick.
type Status struct {
	State          State   `json:"state"`
	SessionID      string  `json:"sessionId,omitempty"`
	CurrentAverage float64 `json:"currentAverage"`
	ElapsedSeconds int64   `json:"elapsedSeconds"`
	Elapsed        string  `json:"elapsed"` // ISO 8601 duration
	GPSReady       bool    `json:"gpsReady"`
	LastFix        *Fix    `json:"lastFix,omitempty"`
	WindowSize     int     `json:"n"`
	SaveInterval   int     `json:"B"`
	SampleCount    int     `json:"sampleCount"`
	Measurements   int     `json:"measurements"`
	DemoMode       bool    `json:"demoMode"`
	LogPath        string  `json:"logPath,omitempty"`
}

// StatusPublisher receives a Status on every UI tick and on state changes.
type StatusPublisher interface {
	Publish(Status)
}

func formatElapsed(seconds int64) string {
	return duration.Format(time.Duration(seconds) * time.Second)
}
