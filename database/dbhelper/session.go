package dbhelper

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/ray-remotestate/cafedash/database"
	"github.com/ray-remotestate/cafedash/models"
)

func CreateSession(tx *sql.Tx, tokens models.Tokens) (uuid.UUID, error) {
	id := uuid.New()
	_, err := tx.Exec(`
		INSERT INTO dashboard_sessions (id, access_token, refresh_token, token_type)
		VALUES ($1, $2, $3, $4)`,
		id, tokens.AccessToken, tokens.RefreshToken, tokens.TokenType)
	if err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

func SaveSessionUser(tx *sql.Tx, id uuid.UUID, user *models.User) error {
	profile, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user profile: %w", err)
	}
	_, err = tx.Exec(`
		UPDATE dashboard_sessions
		SET user_profile = $2, updated_at = NOW()
		WHERE id = $1 AND archived_at IS NULL`, id, profile)
	return err
}

func SaveSessionTokens(id uuid.UUID, tokens models.Tokens) error {
	res, err := database.Dashboard.Exec(`
		UPDATE dashboard_sessions
		SET access_token = $2, refresh_token = $3, token_type = $4, updated_at = NOW()
		WHERE id = $1 AND archived_at IS NULL`,
		id, tokens.AccessToken, tokens.RefreshToken, tokens.TokenType)
	if err != nil {
		return err
	}
	return expectOne(res)
}

func UpdateSessionUser(id uuid.UUID, user *models.User) error {
	profile, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user profile: %w", err)
	}
	res, err := database.Dashboard.Exec(`
		UPDATE dashboard_sessions
		SET user_profile = $2, updated_at = NOW()
		WHERE id = $1 AND archived_at IS NULL`, id, profile)
	if err != nil {
		return err
	}
	return expectOne(res)
}

func GetSession(id uuid.UUID) (*models.Session, error) {
	var (
		sess    models.Session
		profile []byte
	)
	err := database.Dashboard.QueryRow(`
		SELECT id, access_token, refresh_token, token_type, user_profile, created_at, updated_at
		FROM dashboard_sessions
		WHERE id = $1 AND archived_at IS NULL`, id).
		Scan(&sess.ID, &sess.AccessToken, &sess.RefreshToken, &sess.TokenType, &profile, &sess.CreatedAt, &sess.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if len(profile) > 0 {
		var user models.User
		if err := json.Unmarshal(profile, &user); err != nil {
			return nil, fmt.Errorf("decode user profile: %w", err)
		}
		sess.User = &user
	}
	return &sess, nil
}

// ArchiveSession soft-deletes a session so its tokens can no longer be read.
func ArchiveSession(id uuid.UUID) error {
	_, err := database.Dashboard.Exec(`
		UPDATE dashboard_sessions
		SET access_token = '', refresh_token = '', user_profile = NULL, archived_at = NOW()
		WHERE id = $1 AND archived_at IS NULL`, id)
	return err
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
