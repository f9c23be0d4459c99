package repository

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/Stewz00/wordwave-auth/internal/database"
	"github.com/Stewz00/wordwave-auth/internal/model"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	if err := godotenv.Load("../../.env.test"); err != nil {
		fmt.Printf("Warning: .env.test file not found: %v\n", err)
	}
}

func setupTestDB(t *testing.T) *database.DB {
	t.Helper()
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set; skipping PostgreSQL repository tests")
	}

	m, err := database.NewMigrator(dbURL)
	require.NoError(t, err)
	require.NoError(t, m.Up())
	require.NoError(t, m.Close())

	db, err := database.New(context.Background(), dbURL)
	require.NoError(t, err, "failed to connect to test database")
	t.Cleanup(db.Close)

	// Clean up before each test
	_, err = db.Pool.Exec(context.Background(), "TRUNCATE users CASCADE")
	require.NoError(t, err, "failed to clean test database")

	return db
}

func newAccount(email, username string) model.NewAccount {
	return model.NewAccount{Email: email, Username: username, PasswordHash: "hashedpassword"}
}

func TestUserRepository_Create(t *testing.T) {
	repo := NewUserRepository(setupTestDB(t))
	ctx := context.Background()

	tests := []struct {
		name     string
		email    string
		username string
		errIs    error
	}{
		{name: "valid user creation", email: "test@example.com", username: "test"},
		{name: "duplicate email", email: "test@example.com", username: "other", errIs: ErrDuplicateEmail},
		{name: "duplicate username", email: "other@example.com", username: "test", errIs: ErrDuplicateUsername},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			account, err := repo.Create(ctx, newAccount(tt.email, tt.username))

			if tt.errIs != nil {
				assert.ErrorIs(t, err, tt.errIs)
				return
			}

			require.NoError(t, err)
			assert.NotEmpty(t, account.ID)
			assert.Equal(t, tt.email, account.Email)
			assert.Equal(t, model.RoleUser, account.Role)
			assert.True(t, account.IsActive)
			assert.Nil(t, account.ResetToken)
			assert.Nil(t, account.ResetTokenExpiresAt)
		})
	}
}

func TestUserRepository_Find(t *testing.T) {
	repo := NewUserRepository(setupTestDB(t))
	ctx := context.Background()

	created, err := repo.Create(ctx, newAccount("test@example.com", "tester"))
	require.NoError(t, err)

	byEmail, err := repo.FindByEmail(ctx, "test@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byEmail.ID)

	byName, err := repo.FindByUsername(ctx, "tester")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byName.ID)

	byID, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "hashedpassword", byID.PasswordHash)

	_, err = repo.FindByEmail(ctx, "nonexistent@example.com")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserRepository_UpdateLastLogin(t *testing.T) {
	repo := NewUserRepository(setupTestDB(t))
	ctx := context.Background()

	created, err := repo.Create(ctx, newAccount("test@example.com", "tester"))
	require.NoError(t, err)

	at := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, repo.UpdateLastLogin(ctx, created.ID, at))

	updated, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, updated.LastLogin)
	assert.True(t, updated.LastLogin.Equal(at))
}

func TestUserRepository_ResetTokenLifecycle(t *testing.T) {
	repo := NewUserRepository(setupTestDB(t))
	ctx := context.Background()

	created, err := repo.Create(ctx, newAccount("test@example.com", "tester"))
	require.NoError(t, err)

	expiresAt := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
	require.NoError(t, repo.SetResetToken(ctx, created.ID, "digest-1", expiresAt))

	found, err := repo.FindByResetToken(ctx, "digest-1")
	require.NoError(t, err)
	require.NotNil(t, found.ResetToken)
	require.NotNil(t, found.ResetTokenExpiresAt)
	assert.True(t, found.ResetTokenExpiresAt.Equal(expiresAt))

	require.NoError(t, repo.ConsumeResetToken(ctx, created.ID, "digest-1", "newhash", time.Now()))

	after, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "newhash", after.PasswordHash)
	assert.Nil(t, after.ResetToken)
	assert.Nil(t, after.ResetTokenExpiresAt)

	err = repo.ConsumeResetToken(ctx, created.ID, "digest-1", "otherhash", time.Now())
	assert.ErrorIs(t, err, ErrResetTokenNotFound)

	_, err = repo.FindByResetToken(ctx, "digest-1")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserRepository_ConcurrentConsumeSucceedsOnce(t *testing.T) {
	repo := NewUserRepository(setupTestDB(t))
	ctx := context.Background()

	created, err := repo.Create(ctx, newAccount("test@example.com", "tester"))
	require.NoError(t, err)
	require.NoError(t, repo.SetResetToken(ctx, created.ID, "digest-race", time.Now().Add(time.Hour)))

	const workers = 8
	var wg sync.WaitGroup
	results := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results <- repo.ConsumeResetToken(ctx, created.ID, "digest-race", fmt.Sprintf("hash-%d", i), time.Now())
		}(i)
	}
	wg.Wait()
	close(results)

	var ok int
	for err := range results {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, ErrResetTokenNotFound)
	}
	assert.Equal(t, 1, ok)
}
