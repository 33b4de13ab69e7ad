package service

import (
	"context"
	"testing"

	"inkwell/internal/models"
	"inkwell/internal/repository"
	"inkwell/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const strongPassword = "Correct-Horse-42"

func TestAuthService_RegisterAndLogin(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewAuthService(repository.NewUserRepository(db))
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{Username: "writer", Name: "Writer", Email: "Writer@Example.com", Password: strongPassword})
	require.NoError(t, err)
	assert.Equal(t, "writer@example.com", user.Email)
	assert.NotEqual(t, strongPassword, user.Password)

	tests := []struct {
		name string
		in   RegisterInput
		code string
	}{
		{"duplicate email", RegisterInput{Username: "other", Email: "writer@example.com", Password: strongPassword}, models.CodeConflict},
		{"duplicate username", RegisterInput{Username: "writer", Email: "new@example.com", Password: strongPassword}, models.CodeConflict},
		{"weak password", RegisterInput{Username: "newbie", Email: "newbie@example.com", Password: "short"}, models.CodeValidation},
		{"bad username", RegisterInput{Username: "a b", Email: "ab@example.com", Password: strongPassword}, models.CodeValidation},
		{"bad email", RegisterInput{Username: "valid", Email: "nope", Password: strongPassword}, models.CodeValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.in)
			assert.True(t, models.HasCode(err, tt.code), "got %v", err)
		})
	}

	got, err := svc.Login(ctx, "writer@example.com", strongPassword)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = svc.Login(ctx, "writer@example.com", "wrong")
	assert.True(t, models.HasCode(err, models.CodeUnauthorized))
	_, err = svc.Login(ctx, "ghost@example.com", strongPassword)
	assert.True(t, models.HasCode(err, models.CodeUnauthorized))
}

func TestUserService_UpdateProfile(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewUserService(repository.NewUserRepository(db), nil)
	ctx := context.Background()

	alice := testutil.CreateUser(t, db, "alice")
	testutil.CreateUser(t, db, "bob")

	same := "alice"
	name := "Alice A."
	updated, err := svc.UpdateProfile(ctx, UpdateProfileInput{UserID: alice.ID, Username: &same, Name: &name})
	require.NoError(t, err, "keeping your own username is not a conflict")
	assert.Equal(t, "Alice A.", updated.Name)

	taken := "bob"
	_, err = svc.UpdateProfile(ctx, UpdateProfileInput{UserID: alice.ID, Username: &taken})
	assert.True(t, models.HasCode(err, models.CodeConflict))

	takenEmail := "bob@example.com"
	_, err = svc.UpdateProfile(ctx, UpdateProfileInput{UserID: alice.ID, Email: &takenEmail})
	assert.True(t, models.HasCode(err, models.CodeConflict))

	_, err = svc.UpdateProfile(ctx, UpdateProfileInput{UserID: alice.ID})
	assert.True(t, models.HasCode(err, models.CodeValidation))

	about, err := svc.UpdateAbout(ctx, alice.ID, "I write about Go.")
	require.NoError(t, err)
	assert.Equal(t, "I write about Go.", about.About)

	profile, err := svc.GetProfile(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, profile.Email)
}

func TestUserService_ChangePassword(t *testing.T) {
	db := testutil.NewDB(t)
	users := repository.NewUserRepository(db)
	auth := NewAuthService(users)
	svc := NewUserService(users, nil)
	ctx := context.Background()

	user, err := auth.Register(ctx, RegisterInput{Username: "writer", Email: "w@example.com", Password: strongPassword})
	require.NoError(t, err)

	err = svc.ChangePassword(ctx, ChangePasswordInput{UserID: user.ID, CurrentPassword: "nope", NewPassword: "Another-Pass-99"})
	assert.True(t, models.HasCode(err, models.CodeUnauthorized))

	err = svc.ChangePassword(ctx, ChangePasswordInput{UserID: user.ID, CurrentPassword: strongPassword, NewPassword: "weak"})
	assert.True(t, models.HasCode(err, models.CodeValidation))

	require.NoError(t, svc.ChangePassword(ctx, ChangePasswordInput{UserID: user.ID, CurrentPassword: strongPassword, NewPassword: "Another-Pass-99"}))
	_, err = auth.Login(ctx, "w@example.com", "Another-Pass-99")
	assert.NoError(t, err)

	require.NoError(t, svc.DeleteAccount(ctx, user.ID))
	_, err = svc.GetProfile(ctx, user.ID)
	assert.True(t, models.HasCode(err, models.CodeNotFound))
}

func TestUserService_DeleteAccountDropsIndexedPosts(t *testing.T) {
	db := testutil.NewDB(t)
	indexer := &recordingIndexer{}
	svc := NewUserService(repository.NewUserRepository(db), indexer)
	ctx := context.Background()

	alice := testutil.CreateUser(t, db, "alice")
	bob := testutil.CreateUser(t, db, "bob")
	published := testutil.CreatePost(t, db, alice.ID, models.PostStatusPublished, false)
	draft := testutil.CreatePost(t, db, alice.ID, models.PostStatusDraft, false)
	bobs := testutil.CreatePost(t, db, bob.ID, models.PostStatusPublished, false)

	require.NoError(t, svc.DeleteAccount(ctx, alice.ID))
	assert.ElementsMatch(t, []uint{published.ID, draft.ID}, indexer.removed)
	assert.NotContains(t, indexer.removed, bobs.ID)

	indexer.removed = nil
	err := svc.DeleteAccount(ctx, alice.ID)
	assert.True(t, models.HasCode(err, models.CodeNotFound))
	assert.Empty(t, indexer.removed)
}
