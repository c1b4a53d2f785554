package domain_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhbtk/webtarot/internal/domain"
)

func TestNewReading(t *testing.T) {
	t.Parallel()

	t.Run("anonymous identity", func(t *testing.T) {
		t.Parallel()
		anonID := uuid.New()
		identity := domain.AnonymousIdentity(anonID)

		reading, err := domain.NewReading("should I move?", "", 3, domain.BackendChatGPT, identity)
		require.NoError(t, err)

		assert.NotEqual(t, uuid.Nil, reading.ID)
		assert.False(t, reading.CreatedAt.IsZero())
		assert.Equal(t, "should I move?", reading.Question)
		assert.Len(t, reading.Cards, 3)
		assert.GreaterOrEqual(t, reading.ShuffledTimes, 0)
		assert.Less(t, reading.ShuffledTimes, domain.MaxShuffles)
		require.NotNil(t, reading.UserID)
		assert.Equal(t, anonID, *reading.UserID)
		assert.Empty(t, reading.UserName)
		assert.Empty(t, reading.UserSelfDescription)
		assert.Equal(t, domain.BackendChatGPT, reading.Backend)
	})

	t.Run("authenticated identity snapshots profile", func(t *testing.T) {
		t.Parallel()
		user := &domain.User{
			ID:              uuid.New(),
			Email:           "alice@example.com",
			Name:            "Alice",
			SelfDescription: "curious skeptic",
			HashedPassword:  "hashed",
		}
		identity := domain.UserIdentity(user)

		reading, err := domain.NewReading("what about work?", "new job offer", 5, domain.BackendGemini, identity)
		require.NoError(t, err)

		require.NotNil(t, reading.UserID)
		assert.Equal(t, user.ID, *reading.UserID)
		assert.Equal(t, "Alice", reading.UserName)
		assert.Equal(t, "curious skeptic", reading.UserSelfDescription)
		assert.Equal(t, "new job offer", reading.Context)

		// later profile edits must not rewrite the snapshot
		user.Name = "Alicia"
		assert.Equal(t, "Alice", reading.UserName)
	})

	t.Run("validation failures", func(t *testing.T) {
		t.Parallel()
		identity := domain.AnonymousIdentity(uuid.New())

		_, err := domain.NewReading("", "", 3, domain.BackendChatGPT, identity)
		assert.ErrorIs(t, err, domain.ErrEmptyQuestion)

		_, err = domain.NewReading("question", "", 3, domain.Backend("llama"), identity)
		assert.ErrorIs(t, err, domain.ErrInvalidBackend)

		_, err = domain.NewReading("question", "", domain.MaxDraws+1, domain.BackendChatGPT, identity)
		assert.ErrorIs(t, err, domain.ErrDrawCountRange)
	})
}

func TestReadingOwnership(t *testing.T) {
	t.Parallel()

	owner := uuid.New()
	reading := domain.Reading{UserID: &owner}
	assert.False(t, reading.Unowned())
	assert.True(t, reading.OwnedBy(owner))
	assert.False(t, reading.OwnedBy(uuid.New()))

	unowned := domain.Reading{}
	assert.True(t, unowned.Unowned())
	assert.False(t, unowned.OwnedBy(owner))

	nilOwner := uuid.Nil
	legacy := domain.Reading{UserID: &nilOwner}
	assert.True(t, legacy.Unowned())
}
