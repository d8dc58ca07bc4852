package sqlite

import (
	"context"
	"testing"

	"github.com/arkrose/doorman/internal/auth/domain"
	"github.com/arkrose/doorman/internal/auth/store"
	"github.com/arkrose/doorman/pkg/idx"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	st, err := NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())
	return st
}

func newUser(username string) domain.User {
	return domain.User{
		ID:           idx.New().String(),
		Username:     username,
		PasswordHash: "$argon2id$v=19$m=19456,t=2,p=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaGhhc2hoYXNoaGFzaGhhc2hoYXNoaGFzaGhhc2g",
	}
}

func TestCreateAndGetUser(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	empty, err := st.Users().IsEmpty(ctx)
	require.NoError(t, err)
	require.True(t, empty)

	u := newUser("alice")
	require.NoError(t, st.Users().CreateUser(ctx, u))

	got, err := st.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, u.Username, got.Username)
	require.Equal(t, u.PasswordHash, got.PasswordHash)
	require.Nil(t, got.TOTPSecret)
	require.Nil(t, got.TwoFactorEnabled)
	require.False(t, got.CreatedAt.IsZero())

	byName, err := st.Users().GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, u.ID, byName.ID)

	empty, err = st.Users().IsEmpty(ctx)
	require.NoError(t, err)
	require.False(t, empty)
}

func TestCreateUserDuplicateUsername(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.Users().CreateUser(ctx, newUser("alice")))

	err := st.Users().CreateUser(ctx, newUser("alice"))
	require.ErrorIs(t, err, store.ErrAlreadyExists)
}

func TestGetUserNotFound(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	_, err := st.Users().GetUserByID(ctx, idx.New().String())
	require.ErrorIs(t, err, store.ErrNotFound)

	_, err = st.Users().GetUserByUsername(ctx, "nobody")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestUpdatePasswordHash(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	u := newUser("alice")
	require.NoError(t, st.Users().CreateUser(ctx, u))

	require.NoError(t, st.Users().UpdatePasswordHash(ctx, u.ID, "new-hash"))

	got, err := st.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, "new-hash", got.PasswordHash)

	err = st.Users().UpdatePasswordHash(ctx, idx.New().String(), "x")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestTwoFactorLifecycle(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	u := newUser("alice")
	require.NoError(t, st.Users().CreateUser(ctx, u))

	// Enabling without a secret must not flip the flag.
	err := st.Users().EnableTwoFactor(ctx, u.ID)
	require.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, st.Users().UpdateTOTPSecret(ctx, u.ID, "JBSWY3DPEHPK3PXP"))

	got, err := st.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, got.TOTPSecret)
	require.Nil(t, got.TwoFactorEnabled)

	require.NoError(t, st.Users().EnableTwoFactor(ctx, u.ID))

	got, err = st.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, got.TwoFactorEnabled)

	// Disable clears both fields in one statement.
	require.NoError(t, st.Users().DisableTwoFactor(ctx, u.ID))

	got, err = st.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Nil(t, got.TOTPSecret)
	require.Nil(t, got.TwoFactorEnabled)
}

func TestDeleteUser(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	u := newUser("alice")
	require.NoError(t, st.Users().CreateUser(ctx, u))
	require.NoError(t, st.Users().DeleteUser(ctx, u.ID))

	_, err := st.Users().GetUserByID(ctx, u.ID)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestWithTxRollsBackOnError(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	u := newUser("alice")
	sentinel := store.ErrNotFound

	err := st.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().CreateUser(ctx, u); err != nil {
			return err
		}
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)

	_, err = st.Users().GetUserByID(ctx, u.ID)
	require.ErrorIs(t, err, store.ErrNotFound, "insert must be rolled back")
}

func TestWithTxCommits(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	u := newUser("alice")
	require.NoError(t, st.WithTx(ctx, func(tx store.Tx) error {
		return tx.Users().CreateUser(ctx, u)
	}))

	_, err := st.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
}
