package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/giftguru/gift-guru-go/internal/constants"
	"github.com/giftguru/gift-guru-go/internal/domain"
	"github.com/giftguru/gift-guru-go/internal/service/database"
	"go.uber.org/zap"
)

// SessionRepository persists gift sessions. Nested documents (interests,
// social links, giftee info) live in JSONB columns so the schema tracks
// the session document shape without per-field migrations.
type SessionRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewSessionRepository(postgres *database.PostgresService, logger *zap.Logger) *SessionRepository {
	return &SessionRepository{
		db:     postgres.GetDB(),
		logger: logger,
	}
}

// Create inserts a new session. Missing timestamps and expiry are filled
// from the default session lifetime.
func (r *SessionRepository) Create(ctx context.Context, session *domain.Session) error {
	now := time.Now().UTC()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	if session.UpdatedAt.IsZero() {
		session.UpdatedAt = now
	}
	if session.LastActivity.IsZero() {
		session.LastActivity = now
	}
	if session.ExpiresAt.IsZero() {
		session.ExpiresAt = now.Add(constants.SessionConfig.DefaultLifetime)
	}
	if session.Status == "" {
		session.Status = domain.SessionStatusActive
	}
	if session.Interests == nil {
		session.Interests = []domain.Interest{}
	}

	interestsJSON, socialLinksJSON, gifteeJSON, filesJSON, err := marshalSessionDocs(session)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO sessions (session_id, interests, social_links, giftee_info,
		                      uploaded_files, status, last_activity, expires_at,
		                      created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err = r.db.ExecContext(ctx, query,
		session.SessionID, interestsJSON, socialLinksJSON, gifteeJSON,
		filesJSON, string(session.Status), session.LastActivity, session.ExpiresAt,
		session.CreatedAt, session.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}

	r.logger.Info("Session created", zap.String("session_id", session.SessionID))
	return nil
}

// FindByID retrieves a session, or nil when absent.
func (r *SessionRepository) FindByID(ctx context.Context, sessionID string) (*domain.Session, error) {
	query := `
		SELECT session_id, interests, social_links, giftee_info, uploaded_files,
		       status, last_activity, expires_at, created_at, updated_at
		FROM sessions
		WHERE session_id = $1
		LIMIT 1
	`

	var (
		id              string
		interestsJSON   []byte
		socialLinksJSON []byte
		gifteeJSON      []byte
		filesJSON       []byte
		status          string
		lastActivity    time.Time
		expiresAt       time.Time
		createdAt       time.Time
		updatedAt       time.Time
	)

	err := r.db.QueryRowContext(ctx, query, sessionID).Scan(
		&id, &interestsJSON, &socialLinksJSON, &gifteeJSON, &filesJSON,
		&status, &lastActivity, &expiresAt, &createdAt, &updatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query session: %w", err)
	}

	return scanSession(id, interestsJSON, socialLinksJSON, gifteeJSON, filesJSON,
		status, lastActivity, expiresAt, createdAt, updatedAt)
}

// Update rewrites the stored document and bumps last activity. Returns
// false when the session does not exist.
func (r *SessionRepository) Update(ctx context.Context, session *domain.Session) (bool, error) {
	now := time.Now().UTC()
	session.UpdatedAt = now
	session.LastActivity = now

	interestsJSON, socialLinksJSON, gifteeJSON, filesJSON, err := marshalSessionDocs(session)
	if err != nil {
		return false, err
	}

	query := `
		UPDATE sessions
		SET interests = $2, social_links = $3, giftee_info = $4,
		    uploaded_files = $5, status = $6, last_activity = $7,
		    expires_at = $8, updated_at = $9
		WHERE session_id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		session.SessionID, interestsJSON, socialLinksJSON, gifteeJSON,
		filesJSON, string(session.Status), session.LastActivity,
		session.ExpiresAt, session.UpdatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update session: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read update result: %w", err)
	}

	return affected > 0, nil
}

// TouchActivity refreshes last_activity without rewriting the document.
func (r *SessionRepository) TouchActivity(ctx context.Context, sessionID string) error {
	query := `
		UPDATE sessions
		SET last_activity = now(), updated_at = now()
		WHERE session_id = $1
	`

	if _, err := r.db.ExecContext(ctx, query, sessionID); err != nil {
		return fmt.Errorf("failed to touch session activity: %w", err)
	}
	return nil
}

// Delete removes a session. Returns false when nothing was deleted.
func (r *SessionRepository) Delete(ctx context.Context, sessionID string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE session_id = $1`, sessionID)
	if err != nil {
		return false, fmt.Errorf("failed to delete session: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read delete result: %w", err)
	}

	if affected > 0 {
		r.logger.Info("Session deleted", zap.String("session_id", sessionID))
	}
	return affected > 0, nil
}

// ExpireStale marks sessions past their expiry as expired and returns the
// count of rows changed.
func (r *SessionRepository) ExpireStale(ctx context.Context) (int64, error) {
	query := `
		UPDATE sessions
		SET status = $1, updated_at = now()
		WHERE expires_at < now() AND status = $2
	`

	result, err := r.db.ExecContext(ctx, query,
		string(domain.SessionStatusExpired), string(domain.SessionStatusActive))
	if err != nil {
		return 0, fmt.Errorf("failed to expire sessions: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read expire result: %w", err)
	}

	if affected > 0 {
		r.logger.Info("Expired stale sessions", zap.Int64("count", affected))
	}
	return affected, nil
}

func marshalSessionDocs(session *domain.Session) (interests, socialLinks, giftee, files []byte, err error) {
	interests, err = json.Marshal(session.Interests)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("failed to marshal interests: %w", err)
	}

	links := session.SocialLinks
	if links == nil {
		links = []domain.SocialLink{}
	}
	socialLinks, err = json.Marshal(links)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("failed to marshal social links: %w", err)
	}

	if session.GifteeInfo != nil {
		giftee, err = json.Marshal(session.GifteeInfo)
		if err != nil {
			return nil, nil, nil, nil, fmt.Errorf("failed to marshal giftee info: %w", err)
		}
	}

	uploaded := session.UploadedFiles
	if uploaded == nil {
		uploaded = []string{}
	}
	files, err = json.Marshal(uploaded)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("failed to marshal uploaded files: %w", err)
	}

	return interests, socialLinks, giftee, files, nil
}

func scanSession(id string, interestsJSON, socialLinksJSON, gifteeJSON, filesJSON []byte,
	status string, lastActivity, expiresAt, createdAt, updatedAt time.Time) (*domain.Session, error) {

	session := &domain.Session{
		SessionID:    id,
		Status:       domain.SessionStatus(status),
		LastActivity: lastActivity,
		ExpiresAt:    expiresAt,
		CreatedAt:    createdAt,
		UpdatedAt:    updatedAt,
	}

	if err := json.Unmarshal(interestsJSON, &session.Interests); err != nil {
		return nil, fmt.Errorf("failed to unmarshal interests: %w", err)
	}
	if err := json.Unmarshal(socialLinksJSON, &session.SocialLinks); err != nil {
		return nil, fmt.Errorf("failed to unmarshal social links: %w", err)
	}
	if len(gifteeJSON) > 0 {
		if err := json.Unmarshal(gifteeJSON, &session.GifteeInfo); err != nil {
			return nil, fmt.Errorf("failed to unmarshal giftee info: %w", err)
		}
	}
	if err := json.Unmarshal(filesJSON, &session.UploadedFiles); err != nil {
		return nil, fmt.Errorf("failed to unmarshal uploaded files: %w", err)
	}

	return session, nil
}
