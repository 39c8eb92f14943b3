package datastore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/JuanjoRodri/Plan-de-viaje-a-medida-sub002/models"
	"github.com/google/uuid"
)

type SharedLinkRepository struct {
	db *sql.DB
}

func NewSharedLinkRepository(db *sql.DB) *SharedLinkRepository {
	return &SharedLinkRepository{db: db}
}

const sharedLinkColumns = `
	id, itinerary_id, user_id, token, title, created_at, expires_at,
	is_active, view_count, notifications_enabled,
	notification_hours_before, last_notification_sent_at
`

func (r *SharedLinkRepository) CreateSharedLink(ctx context.Context, link *models.SharedLink) error {
	if _, err := uuid.Parse(link.ID); err != nil {
		return fmt.Errorf("invalid shared link ID format: %w", err)
	}
	if _, err := uuid.Parse(link.ItineraryID); err != nil {
		return fmt.Errorf("invalid itinerary ID format: %w", err)
	}

	query := `
		INSERT INTO shared_links (` + sharedLinkColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := r.db.ExecContext(ctx, query,
		link.ID, link.ItineraryID, link.UserID, link.Token, link.Title,
		link.CreatedAt, link.ExpiresAt, link.IsActive, link.ViewCount,
		link.NotificationsEnabled, link.NotificationHoursBefore,
		link.LastNotificationSentAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert shared link: %w", err)
	}
	return nil
}

func scanSharedLink(scanner interface{ Scan(...any) error }) (*models.SharedLink, error) {
	var link models.SharedLink
	err := scanner.Scan(
		&link.ID, &link.ItineraryID, &link.UserID, &link.Token, &link.Title,
		&link.CreatedAt, &link.ExpiresAt, &link.IsActive, &link.ViewCount,
		&link.NotificationsEnabled, &link.NotificationHoursBefore,
		&link.LastNotificationSentAt,
	)
	if err != nil {
		return nil, err
	}
	return &link, nil
}

func (r *SharedLinkRepository) GetSharedLinkByID(ctx context.Context, linkID string) (*models.SharedLink, error) {
	query := `SELECT ` + sharedLinkColumns + ` FROM shared_links WHERE id = $1`
	link, err := scanSharedLink(r.db.QueryRowContext(ctx, query, linkID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get shared link by ID: %w", err)
	}
	return link, nil
}

func (r *SharedLinkRepository) GetSharedLinkByToken(ctx context.Context, token string) (*models.SharedLink, error) {
	query := `SELECT ` + sharedLinkColumns + ` FROM shared_links WHERE token = $1`
	link, err := scanSharedLink(r.db.QueryRowContext(ctx, query, token))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get shared link by token: %w", err)
	}
	return link, nil
}

func (r *SharedLinkRepository) GetSharedLinksByUserID(ctx context.Context, userID string) ([]models.SharedLink, error) {
	query := `
		SELECT ` + sharedLinkColumns + `
		FROM shared_links
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query shared links: %w", err)
	}
	defer rows.Close()

	var links []models.SharedLink
	for rows.Next() {
		link, err := scanSharedLink(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan shared link row: %w", err)
		}
		links = append(links, *link)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating shared link rows: %w", err)
	}
	return links, nil
}

// GetNotifiableLinks returns the active links with a non-null expiry and
// notifications enabled, joined with the owner's email. This is the set
// the link-expiry notifier evaluates on every tick.
func (r *SharedLinkRepository) GetNotifiableLinks(ctx context.Context) ([]NotifiableLink, error) {
	query := `
		SELECT sl.id, sl.token, sl.title, sl.expires_at, sl.notification_hours_before,
		       sl.last_notification_sent_at, sl.notifications_enabled, u.email
		FROM shared_links sl
		JOIN users u ON u.id = sl.user_id
		WHERE sl.is_active = TRUE
		  AND sl.expires_at IS NOT NULL
		ORDER BY sl.expires_at ASC
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query notifiable links: %w", err)
	}
	defer rows.Close()

	var links []NotifiableLink
	for rows.Next() {
		var l NotifiableLink
		if err := rows.Scan(&l.ID, &l.Token, &l.Title, &l.ExpiresAt, &l.NotificationHoursBefore,
			&l.LastNotificationSentAt, &l.NotificationsEnabled, &l.UserEmail); err != nil {
			return nil, fmt.Errorf("failed to scan notifiable link row: %w", err)
		}
		links = append(links, l)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notifiable link rows: %w", err)
	}
	return links, nil
}

// NotifiableLink is the projection of a shared link the notifier needs.
type NotifiableLink struct {
	ID                      string
	Token                   string
	Title                   string
	ExpiresAt               time.Time
	NotificationHoursBefore int
	LastNotificationSentAt  *time.Time
	NotificationsEnabled    bool
	UserEmail               string
}

// MarkNotificationSent stamps last_notification_sent_at, guarded so the
// stamp only lands if no other invocation already fired within the
// current window. Returns false when the guard rejected the update,
// meaning a concurrent run won the race.
func (r *SharedLinkRepository) MarkNotificationSent(ctx context.Context, linkID string, threshold, sentAt time.Time) (bool, error) {
	query := `
		UPDATE shared_links
		SET last_notification_sent_at = $3
		WHERE id = $1
		  AND (last_notification_sent_at IS NULL OR last_notification_sent_at < $2)
	`
	result, err := r.db.ExecContext(ctx, query, linkID, threshold, sentAt)
	if err != nil {
		return false, fmt.Errorf("failed to mark notification sent: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return rows > 0, nil
}

// ResetNotification clears last_notification_sent_at so the next
// notifier tick may fire again. Support workflow, owner only.
func (r *SharedLinkRepository) ResetNotification(ctx context.Context, linkID, userID string) error {
	query := `
		UPDATE shared_links
		SET last_notification_sent_at = NULL
		WHERE id = $1 AND user_id = $2
	`
	result, err := r.db.ExecContext(ctx, query, linkID, userID)
	if err != nil {
		return fmt.Errorf("failed to reset notification: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// UpdateSharedLinkSettings updates expiry and notification preferences.
func (r *SharedLinkRepository) UpdateSharedLinkSettings(ctx context.Context, link *models.SharedLink) error {
	query := `
		UPDATE shared_links
		SET expires_at = $3, notifications_enabled = $4, notification_hours_before = $5
		WHERE id = $1 AND user_id = $2
	`
	result, err := r.db.ExecContext(ctx, query,
		link.ID, link.UserID, link.ExpiresAt,
		link.NotificationsEnabled, link.NotificationHoursBefore,
	)
	if err != nil {
		return fmt.Errorf("failed to update shared link settings: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeactivateSharedLink soft-deletes a link so its token stops resolving.
func (r *SharedLinkRepository) DeactivateSharedLink(ctx context.Context, linkID, userID string) error {
	query := `
		UPDATE shared_links
		SET is_active = FALSE
		WHERE id = $1 AND user_id = $2
	`
	result, err := r.db.ExecContext(ctx, query, linkID, userID)
	if err != nil {
		return fmt.Errorf("failed to deactivate shared link: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// IncrementViewCount bumps the public view counter in place.
func (r *SharedLinkRepository) IncrementViewCount(ctx context.Context, linkID string) error {
	query := `UPDATE shared_links SET view_count = view_count + 1 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, linkID); err != nil {
		return fmt.Errorf("failed to increment view count: %w", err)
	}
	return nil
}
