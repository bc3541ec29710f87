package dbhelper

import (
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ray-remotestate/cafedash/database"
	"github.com/ray-remotestate/cafedash/models"
)

func withMock(t *testing.T) sqlmock.Sqlmock {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	prev := database.Dashboard
	database.Dashboard = db
	t.Cleanup(func() {
		database.Dashboard = prev
		db.Close()
	})
	return mock
}

func TestCreateSessionWithUser(t *testing.T) {
	mock := withMock(t)
	tokens := models.Tokens{AccessToken: "a", RefreshToken: "r", TokenType: "bearer"}
	user := &models.User{UserProfile: models.UserProfile{ID: "u1", Username: "owner"}}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO dashboard_sessions").
		WithArgs(sqlmock.AnyArg(), "a", "r", "bearer").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("SET user_profile").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	var id uuid.UUID
	err := database.Tx(func(tx *sql.Tx) error {
		var err error
		id, err = CreateSession(tx, tokens)
		if err != nil {
			return err
		}
		return SaveSessionUser(tx, id, user)
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateSessionRollsBack(t *testing.T) {
	mock := withMock(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO dashboard_sessions").WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	err := database.Tx(func(tx *sql.Tx) error {
		_, err := CreateSession(tx, models.Tokens{AccessToken: "a"})
		return err
	})
	assert.ErrorIs(t, err, sql.ErrConnDone)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetSession(t *testing.T) {
	mock := withMock(t)
	id := uuid.New()
	now := time.Now()

	rows := sqlmock.NewRows([]string{"id", "access_token", "refresh_token", "token_type", "user_profile", "created_at", "updated_at"}).
		AddRow(id.String(), "a", "r", "bearer", []byte(`{"id":"u1","username":"owner","cafes":[{"slug":"cafe","role":"OWNER"}]}`), now, now)
	mock.ExpectQuery("FROM dashboard_sessions").WithArgs(sqlmock.AnyArg()).WillReturnRows(rows)

	sess, err := GetSession(id)
	require.NoError(t, err)
	assert.Equal(t, id, sess.ID)
	assert.Equal(t, "a", sess.AccessToken)
	require.NotNil(t, sess.User)
	assert.Equal(t, "owner", sess.User.Username)
	assert.Len(t, sess.User.OwnedCafes(), 1)
}

func TestGetSessionWithoutProfile(t *testing.T) {
	mock := withMock(t)
	id := uuid.New()
	now := time.Now()

	rows := sqlmock.NewRows([]string{"id", "access_token", "refresh_token", "token_type", "user_profile", "created_at", "updated_at"}).
		AddRow(id.String(), "a", "r", "bearer", nil, now, now)
	mock.ExpectQuery("FROM dashboard_sessions").WithArgs(sqlmock.AnyArg()).WillReturnRows(rows)

	sess, err := GetSession(id)
	require.NoError(t, err)
	assert.Nil(t, sess.User)
}

func TestSaveSessionTokensUnknownSession(t *testing.T) {
	mock := withMock(t)

	mock.ExpectExec("SET access_token").
		WithArgs(sqlmock.AnyArg(), "a2", "r2", "bearer").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := SaveSessionTokens(uuid.New(), models.Tokens{AccessToken: "a2", RefreshToken: "r2", TokenType: "bearer"})
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestArchiveSession(t *testing.T) {
	mock := withMock(t)

	mock.ExpectExec("SET access_token = '', refresh_token = ''").
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, ArchiveSession(uuid.New()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
