package repository

import (
	"context"
	"testing"

	"digitronix/internal/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository_CreateAndFind(t *testing.T) {
	db := requireDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	user := newTestUser("mona@example.com", "01000000001")
	require.NoError(t, repo.Create(ctx, user))

	byEmail, err := repo.FindByEmail(ctx, "mona@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)
	assert.Equal(t, user.PasswordHash, byEmail.PasswordHash)
	assert.False(t, byEmail.IsAdmin)

	byID, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Cairo", byID.City)
	assert.Equal(t, "4B", byID.Apartment)
}

func TestUserRepository_DuplicateEmailAndPhone(t *testing.T) {
	db := requireDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newTestUser("a@example.com", "01000000001")))

	err := repo.Create(ctx, newTestUser("a@example.com", "01000000002"))
	assert.ErrorIs(t, err, domain.ErrEmailTaken)
	assert.Equal(t, domain.KindConflict, domain.KindOf(err))

	err = repo.Create(ctx, newTestUser("b@example.com", "01000000001"))
	assert.ErrorIs(t, err, domain.ErrPhoneTaken)

	// The first registration is left untouched
	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestUserRepository_NotFound(t *testing.T) {
	db := requireDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	_, err := repo.FindByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	_, err = repo.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	assert.ErrorIs(t, repo.Delete(ctx, uuid.New()), domain.ErrUserNotFound)
}

func TestUserRepository_ListAndDelete(t *testing.T) {
	db := requireDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	first := newTestUser("first@example.com", "01000000001")
	second := newTestUser("second@example.com", "01000000002")
	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, second))

	users, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2)

	require.NoError(t, repo.Delete(ctx, first.ID))

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
