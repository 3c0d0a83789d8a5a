package repository

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestUserRepository_GetByID(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	tests := []struct {
		name          string
		userID        uint
		mockBehavior  func()
		expectedName  string
		expectedError bool
	}{
		{
			name:   "Success",
			userID: 1,
			mockBehavior: func() {
				rows := sqlmock.NewRows([]string{"id", "provider", "subject", "name"}).
					AddRow(1, "github", "gh-123", "Ada")
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE "users"."id" = $1 ORDER BY "users"."id" LIMIT $2`)).
					WithArgs(1, 1).
					WillReturnRows(rows)
			},
			expectedName: "Ada",
		},
		{
			name:   "Not Found",
			userID: 99,
			mockBehavior: func() {
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE "users"."id" = $1 ORDER BY "users"."id" LIMIT $2`)).
					WithArgs(99, 1).
					WillReturnError(gorm.ErrRecordNotFound)
			},
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockBehavior()
			user, err := repo.GetByID(ctx, tt.userID)

			if tt.expectedError {
				assert.Error(t, err)
			} else if assert.NotNil(t, user) {
				assert.Equal(t, tt.expectedName, user.Name)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUserRepository_GetOrCreateBySubject_Existing(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)

	rows := sqlmock.NewRows([]string{"id", "provider", "subject", "name", "image"}).
		AddRow(1, "github", "gh-123", "Ada", "https://i.pravatar.cc/150?u=ada")
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE provider = $1 AND subject = $2 ORDER BY "users"."id" LIMIT $3`)).
		WithArgs("github", "gh-123", 1).
		WillReturnRows(rows)

	// Name and image match what the provider reports; no write happens.
	user, err := repo.GetOrCreateBySubject(context.Background(), "github", "gh-123", "Ada", "https://i.pravatar.cc/150?u=ada")
	require.NoError(t, err)
	assert.Equal(t, uint(1), user.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_GetOrCreateBySubject_CreatesOnFirstSight(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE provider = $1 AND subject = $2 ORDER BY "users"."id" LIMIT $3`)).
		WithArgs("github", "gh-456", 1).
		WillReturnError(gorm.ErrRecordNotFound)
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(2))
	mock.ExpectCommit()

	user, err := repo.GetOrCreateBySubject(context.Background(), "github", "gh-456", "Grace", "")
	require.NoError(t, err)
	assert.Equal(t, uint(2), user.ID)
	assert.Equal(t, "Grace", user.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_GetOrCreateBySubject_RefreshesProfile(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)

	rows := sqlmock.NewRows([]string{"id", "provider", "subject", "name", "image"}).
		AddRow(1, "github", "gh-123", "Ada", "old.png")
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE provider = $1 AND subject = $2 ORDER BY "users"."id" LIMIT $3`)).
		WithArgs("github", "gh-123", 1).
		WillReturnRows(rows)
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "users"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	user, err := repo.GetOrCreateBySubject(context.Background(), "github", "gh-123", "Ada Lovelace", "new.png")
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", user.Name)
	assert.Equal(t, "new.png", user.Image)
	assert.NoError(t, mock.ExpectationsWereMet())
}
