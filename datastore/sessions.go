package datastore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/JuanjoRodri/Plan-de-viaje-a-medida-sub002/models"
)

type SessionRepository struct {
	db *sql.DB
}

func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// CreateSession stores a new session keyed by the SHA-256 hash of the
// cookie token. The raw token never touches the database.
func (r *SessionRepository) CreateSession(ctx context.Context, session *models.Session, tokenHash string) error {
	query := `
		INSERT INTO sessions (id, user_id, token_hash, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.ExecContext(ctx, query,
		session.ID, session.UserID, tokenHash, session.CreatedAt, session.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}
	return nil
}

// GetSessionByTokenHash resolves a hashed cookie token to a session,
// joined with the owning user's email and role.
func (r *SessionRepository) GetSessionByTokenHash(ctx context.Context, tokenHash string) (*models.Session, error) {
	query := `
		SELECT s.id, s.user_id, s.created_at, s.expires_at, u.email, u.role
		FROM sessions s
		JOIN users u ON u.id = s.user_id
		WHERE s.token_hash = $1
	`
	var session models.Session
	var role string
	err := r.db.QueryRowContext(ctx, query, tokenHash).Scan(
		&session.ID, &session.UserID, &session.CreatedAt, &session.ExpiresAt,
		&session.UserEmail, &role,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get session by token hash: %w", err)
	}
	session.UserRole = models.UserRole(role)
	return &session, nil
}

func (r *SessionRepository) DeleteSession(ctx context.Context, sessionID string) error {
	query := `DELETE FROM sessions WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteExpiredSessions clears lapsed rows. Called opportunistically on
// login rather than by a dedicated job.
func (r *SessionRepository) DeleteExpiredSessions(ctx context.Context) error {
	query := `DELETE FROM sessions WHERE expires_at < NOW()`
	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	return nil
}
