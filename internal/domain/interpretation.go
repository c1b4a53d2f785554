package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// InterpretationStatus represents the lifecycle state of an interpretation.
type InterpretationStatus string

// Possible interpretation status values. Pending is the only non-terminal
// state; Done and Failed are terminal and never transition again.
const (
	InterpretationPending InterpretationStatus = "pending"
	InterpretationDone    InterpretationStatus = "done"
	InterpretationFailed  InterpretationStatus = "failed"
)

// Common state errors for Interpretation
var (
	ErrAlreadyTerminal = errors.New("interpretation already reached a terminal state")
	ErrEmptyResultText = errors.New("interpretation text cannot be empty")
)

// Interpretation couples a reading with the outcome of asking a language
// model to explain it. Exactly one of Text or Error carries content once
// the interpretation is terminal.
type Interpretation struct {
	Reading     Reading              `json:"reading"`
	Status      InterpretationStatus `json:"status"`
	Text        string               `json:"text,omitempty"`
	Error       string               `json:"error,omitempty"`
	CompletedAt *time.Time           `json:"completedAt,omitempty"`
}

// NewPendingInterpretation wraps a reading in a fresh pending interpretation.
func NewPendingInterpretation(reading Reading) *Interpretation {
	return &Interpretation{
		Reading: reading,
		Status:  InterpretationPending,
	}
}

// Terminal reports whether the interpretation finished, successfully or not.
func (i *Interpretation) Terminal() bool {
	return i.Status == InterpretationDone || i.Status == InterpretationFailed
}

// Complete transitions a pending interpretation to done with the produced
// text. Transitions out of a terminal state are rejected.
func (i *Interpretation) Complete(text string, at time.Time) error {
	if i.Terminal() {
		return ErrAlreadyTerminal
	}
	if text == "" {
		return ErrEmptyResultText
	}
	i.Status = InterpretationDone
	i.Text = text
	i.Error = ""
	at = at.UTC()
	i.CompletedAt = &at
	return nil
}

// Fail transitions a pending interpretation to failed with a message meant
// for the querent, already localized. Transitions out of a terminal state
// are rejected.
func (i *Interpretation) Fail(message string, at time.Time) error {
	if i.Terminal() {
		return ErrAlreadyTerminal
	}
	i.Status = InterpretationFailed
	i.Error = message
	i.Text = ""
	at = at.UTC()
	i.CompletedAt = &at
	return nil
}

// AssignUser hands ownership of the underlying reading to the given user.
// This is the single mutation path for ownership after creation.
func (i *Interpretation) AssignUser(userID uuid.UUID) {
	id := userID
	i.Reading.UserID = &id
}
