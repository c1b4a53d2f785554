package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Backend selects which language model produces the interpretation text.
type Backend string

// Supported interpretation backends.
const (
	BackendChatGPT Backend = "chatGPT"
	BackendGemini  Backend = "gemini"
)

// IsValid reports whether the backend is a known value.
func (b Backend) IsValid() bool {
	return b == BackendChatGPT || b == BackendGemini
}

// Common validation errors for Reading
var (
	ErrEmptyQuestion  = errors.New("question cannot be empty")
	ErrInvalidBackend = errors.New("unknown interpretation backend")
)

// Reading is one completed shuffle-and-draw: the querent's question, the
// cards that came up, and a snapshot of who asked. UserID is nil when the
// reading has no owner; UserName and UserSelfDescription are captured at
// creation time so later profile edits do not rewrite past readings.
type Reading struct {
	ID                  uuid.UUID  `json:"id"`
	CreatedAt           time.Time  `json:"createdAt"`
	Question            string     `json:"question"`
	Context             string     `json:"context,omitempty"`
	Cards               []Card     `json:"cards"`
	ShuffledTimes       int        `json:"shuffledTimes"`
	UserID              *uuid.UUID `json:"userId,omitempty"`
	UserName            string     `json:"userName,omitempty"`
	UserSelfDescription string     `json:"userSelfDescription,omitempty"`
	Backend             Backend    `json:"backend,omitempty"`
}

// NewReading shuffles a fresh deck seeded by the question, draws count
// cards, and stamps the result with the caller's identity. An unset backend
// defaults to ChatGPT. Returns an error if the question is empty, the
// backend unknown, or count out of range.
func NewReading(question, context string, count int, backend Backend, identity Identity) (*Reading, error) {
	deck := NewDeck()
	shuffled := deck.Shuffle(question)
	cards, err := deck.Draw(count)
	if err != nil {
		return nil, err
	}
	return newReading(question, context, cards, shuffled, backend, identity)
}

// NewReadingFromCards builds a reading from cards the querent already drew,
// for clients that shuffle locally. ShuffledTimes is zero for these.
func NewReadingFromCards(question, context string, cards []Card, backend Backend, identity Identity) (*Reading, error) {
	if len(cards) == 0 || len(cards) > MaxDraws {
		return nil, ErrDrawCountRange
	}
	return newReading(question, context, cards, 0, backend, identity)
}

func newReading(question, context string, cards []Card, shuffled int, backend Backend, identity Identity) (*Reading, error) {
	if question == "" {
		return nil, ErrEmptyQuestion
	}
	if backend == "" {
		backend = BackendChatGPT
	}
	if !backend.IsValid() {
		return nil, ErrInvalidBackend
	}

	id := identity.ID
	return &Reading{
		ID:                  uuid.New(),
		CreatedAt:           time.Now().UTC(),
		Question:            question,
		Context:             context,
		Cards:               cards,
		ShuffledTimes:       shuffled,
		UserID:              &id,
		UserName:            identity.DisplayName(),
		UserSelfDescription: identity.SelfDescription(),
		Backend:             backend,
	}, nil
}

// Unowned reports whether no identity owns the reading.
func (r *Reading) Unowned() bool {
	return r.UserID == nil || *r.UserID == uuid.Nil
}

// OwnedBy reports whether the given identity id owns the reading.
func (r *Reading) OwnedBy(id uuid.UUID) bool {
	return r.UserID != nil && *r.UserID == id
}
