package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"inkwell/internal/blog"
	"inkwell/internal/cache"
	"inkwell/internal/models"
	"inkwell/internal/testutil"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

func TestUserRepository_GetByID(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	tests := []struct {
		name          string
		userID        uint
		mockBehavior  func()
		expectedUser  *models.User
		expectedError string
	}{
		{
			name:   "Success",
			userID: 1,
			mockBehavior: func() {
				rows := sqlmock.NewRows([]string{"id", "username", "email"}).
					AddRow(1, "testuser", "test@example.com")
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE "users"."id" = $1 ORDER BY "users"."id" LIMIT $2`)).
					WithArgs(1, 1).
					WillReturnRows(rows)
			},
			expectedUser: &models.User{ID: 1, Username: "testuser", Email: "test@example.com"},
		},
		{
			name:   "Not Found",
			userID: 99,
			mockBehavior: func() {
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE "users"."id" = $1 ORDER BY "users"."id" LIMIT $2`)).
					WithArgs(99, 1).
					WillReturnError(gorm.ErrRecordNotFound)
			},
			expectedError: models.CodeNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockBehavior()
			user, err := repo.GetByID(ctx, tt.userID)
			if tt.expectedError != "" {
				assert.True(t, models.HasCode(err, tt.expectedError))
				assert.Nil(t, user)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expectedUser.Username, user.Username)
				assert.Equal(t, tt.expectedUser.Email, user.Email)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUserRepository_CreateDuplicate(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "users"`)).
		WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"})
	mock.ExpectRollback()

	err := repo.Create(context.Background(), &models.User{Username: "taken", Email: "taken@example.com", Password: "x"})
	assert.True(t, models.HasCode(err, models.CodeConflict))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_GetByEmailMissing(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewUserRepository(db)

	user, err := repo.GetByEmail(context.Background(), "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestUserRepository_UpdateFields(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()
	alice := testutil.CreateUser(t, db, "alice")
	testutil.CreateUser(t, db, "bob")

	require.NoError(t, repo.UpdateFields(ctx, alice.ID, map[string]interface{}{"about": "writer"}))
	got, err := repo.GetCredentials(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "writer", got.About)
	assert.Equal(t, "hashed", got.Password)

	err = repo.UpdateFields(ctx, alice.ID, map[string]interface{}{"username": "bob"})
	assert.True(t, models.HasCode(err, models.CodeConflict))

	err = repo.UpdateFields(ctx, 999, map[string]interface{}{"about": "x"})
	assert.True(t, models.HasCode(err, models.CodeNotFound))
}

func TestUserRepository_DeleteCascades(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	alice := testutil.CreateUser(t, db, "alice")
	bob := testutil.CreateUser(t, db, "bob")

	alicePost := testutil.CreatePost(t, db, alice.ID, models.PostStatusPublished, false)
	bobPost := testutil.CreatePost(t, db, bob.ID, models.PostStatusPublished, false)

	now := time.Now()
	// bob comments on alice's post; alice comments on bob's post and bob replies.
	testutil.CreateComment(t, db, alicePost.ID, bob.ID, nil, now)
	aliceOnBob := testutil.CreateComment(t, db, bobPost.ID, alice.ID, nil, now)
	testutil.CreateComment(t, db, bobPost.ID, bob.ID, &aliceOnBob.ID, now.Add(time.Second))
	bobOwn := testutil.CreateComment(t, db, bobPost.ID, bob.ID, nil, now.Add(2*time.Second))

	require.NoError(t, db.Create(&models.Reaction{UserID: alice.ID, PostID: bobPost.ID, Type: models.ReactionLike}).Error)
	require.NoError(t, db.Create(&models.Reaction{UserID: bob.ID, PostID: alicePost.ID, Type: models.ReactionLike}).Error)

	removed, err := repo.Delete(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{alicePost.ID}, removed)

	var users, posts, reactions int64
	db.Model(&models.User{}).Count(&users)
	db.Model(&models.Post{}).Count(&posts)
	db.Model(&models.Reaction{}).Count(&reactions)
	assert.EqualValues(t, 1, users)
	assert.EqualValues(t, 1, posts)
	assert.EqualValues(t, 0, reactions)

	var remaining []models.Comment
	require.NoError(t, db.Find(&remaining).Error)
	require.Len(t, remaining, 1)
	assert.Equal(t, bobOwn.ID, remaining[0].ID)

	_, err = repo.Delete(ctx, alice.ID)
	assert.True(t, models.HasCode(err, models.CodeNotFound))
}

func TestUserRepository_RenameRefreshesCachedPosts(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache.SetClient(rdb)
	t.Cleanup(func() {
		cache.SetClient(nil)
		_ = rdb.Close()
	})

	db := testutil.NewDB(t)
	users := NewUserRepository(db)
	posts := NewPostRepository(db)
	ctx := context.Background()

	alice := testutil.CreateUser(t, db, "alice")
	post := testutil.CreatePost(t, db, alice.ID, models.PostStatusPublished, false)
	detail := blog.FilterFor(blog.ScopeDetail, 0)

	got, err := posts.GetByID(ctx, post.ID, detail)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.User.Username)
	require.True(t, mr.Exists(cache.PostKey(post.ID)))

	require.NoError(t, users.UpdateFields(ctx, alice.ID, map[string]interface{}{"about": "hello"}))
	assert.True(t, mr.Exists(cache.PostKey(post.ID)), "about is not part of the cached author")

	require.NoError(t, users.UpdateFields(ctx, alice.ID, map[string]interface{}{"username": "alicia"}))
	assert.False(t, mr.Exists(cache.PostKey(post.ID)))

	got, err = posts.GetByID(ctx, post.ID, detail)
	require.NoError(t, err)
	assert.Equal(t, "alicia", got.User.Username)
}
