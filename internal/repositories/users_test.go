package repositories_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"task-tracker/backend/internal/models"
	"task-tracker/backend/internal/repositories"
	"task-tracker/backend/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUser(username string) *models.User {
	return &models.User{Username: username, PasswordHash: "hash", Salt: "salt"}
}

func TestUserRepository_CreateAndFind(t *testing.T) {
	repo := repositories.NewUserRepository(testutil.NewSQLiteDB(t), time.Second)
	ctx := context.Background()

	user := newUser("alice")
	require.NoError(t, repo.Create(ctx, user))
	assert.False(t, user.ID.IsNil())

	found, err := repo.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)
	assert.Equal(t, "hash", found.PasswordHash)
	assert.Equal(t, "salt", found.Salt)
}

func TestUserRepository_FindMissing(t *testing.T) {
	repo := repositories.NewUserRepository(testutil.NewSQLiteDB(t), time.Second)

	_, err := repo.FindByUsername(context.Background(), "nobody")
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestUserRepository_DuplicateUsername(t *testing.T) {
	repo := repositories.NewUserRepository(testutil.NewSQLiteDB(t), time.Second)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newUser("alice")))

	err := repo.Create(ctx, newUser("alice"))
	assert.ErrorIs(t, err, repositories.ErrDuplicateKey)
}

func TestUserRepository_ConcurrentCreateSameUsername(t *testing.T) {
	repo := repositories.NewUserRepository(testutil.NewSQLiteDB(t), 5*time.Second)
	ctx := context.Background()

	const attempts = 8
	var wg sync.WaitGroup
	errs := make(chan error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- repo.Create(ctx, newUser("racer"))
		}()
	}
	wg.Wait()
	close(errs)

	var succeeded, conflicts int
	for err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, repositories.ErrDuplicateKey):
			conflicts++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, attempts-1, conflicts)
}

func TestUserRepository_DistinctUsernames(t *testing.T) {
	repo := repositories.NewUserRepository(testutil.NewSQLiteDB(t), time.Second)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Create(ctx, newUser(fmt.Sprintf("user%d", i))))
	}
}

func TestUserRepository_CancelledContext(t *testing.T) {
	repo := repositories.NewUserRepository(testutil.NewSQLiteDB(t), time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.FindByUsername(ctx, "alice")
	require.ErrorIs(t, err, repositories.ErrCanceled)
	assert.NotErrorIs(t, err, repositories.ErrNotFound)
	assert.NotErrorIs(t, err, repositories.ErrTimeout)
}
