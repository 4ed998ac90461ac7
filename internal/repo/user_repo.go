package repo

import (
	"context"

	dom "github.com/calculuslmvt/backend101-yt/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

// UserRepo provides user persistence. Refresh-token writes are single
// targeted UPDATEs: the row-level atomicity of the store is the only
// concurrency discipline the session flows rely on.
type UserRepo interface {
	Create(ctx context.Context, u dom.User) (dom.User, error)
	GetByID(ctx context.Context, id int64) (dom.User, error)
	GetByUsernameOrEmail(ctx context.Context, username, email string) (dom.User, error)
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error)

	SetRefreshToken(ctx context.Context, id int64, token string) error
	// RotateRefreshToken is a compare-and-swap: the stored token is replaced
	// only if it still equals old. Returns false when the swap lost (token
	// already rotated, cleared, or never issued).
	RotateRefreshToken(ctx context.Context, id int64, old, new string) (bool, error)
	ClearRefreshToken(ctx context.Context, id int64) error

	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	UpdateAccount(ctx context.Context, id int64, fullName, email *string) (dom.User, error)
	UpdateAvatar(ctx context.Context, id int64, url string) (dom.User, error)
	UpdateCoverImage(ctx context.Context, id int64, url string) (dom.User, error)

	ChannelProfile(ctx context.Context, username string, viewerID int64) (dom.ChannelProfile, error)
	ToggleSubscription(ctx context.Context, subscriberID, channelID int64) (bool, error)

	WatchHistory(ctx context.Context, userID int64) ([]dom.WatchedVideo, error)
	AppendWatchHistory(ctx context.Context, userID, videoID int64) error
}

const userCols = `id, username, email, full_name, password_hash, avatar_url, cover_image_url, refresh_token, created_at, updated_at`

// PGUserRepo implements UserRepo with Postgres.
type PGUserRepo struct {
	db *pgxpool.Pool
}

// NewPGUserRepo returns a new PGUserRepo.
func NewPGUserRepo(db *pgxpool.Pool) *PGUserRepo {
	return &PGUserRepo{db: db}
}

func scanUser(row interface{ Scan(dest ...any) error }) (dom.User, error) {
	var u dom.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.FullName, &u.PasswordHash,
		&u.AvatarURL, &u.CoverImageURL, &u.RefreshToken, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

func (r *PGUserRepo) Create(ctx context.Context, u dom.User) (dom.User, error) {
	query := `
		INSERT INTO users (username, email, full_name, password_hash, avatar_url, cover_image_url)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + userCols
	return scanUser(r.db.QueryRow(ctx, query,
		u.Username, u.Email, u.FullName, u.PasswordHash, u.AvatarURL, u.CoverImageURL))
}

func (r *PGUserRepo) GetByID(ctx context.Context, id int64) (dom.User, error) {
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE id = $1`, id))
}

// GetByUsernameOrEmail matches either field, mirroring the login contract
// where the identifier may be a username or an email.
func (r *PGUserRepo) GetByUsernameOrEmail(ctx context.Context, username, email string) (dom.User, error) {
	query := `SELECT ` + userCols + ` FROM users WHERE username = $1 OR email = $2`
	return scanUser(r.db.QueryRow(ctx, query, username, email))
}

func (r *PGUserRepo) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE username = $1 OR email = $2)`,
		username, email,
	).Scan(&exists)
	return exists, err
}

func (r *PGUserRepo) SetRefreshToken(ctx context.Context, id int64, token string) error {
	_, err := r.db.Exec(ctx,
		`UPDATE users SET refresh_token = $2, updated_at = NOW() WHERE id = $1`, id, token)
	return err
}

func (r *PGUserRepo) RotateRefreshToken(ctx context.Context, id int64, old, new string) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE users SET refresh_token = $3, updated_at = NOW() WHERE id = $1 AND refresh_token = $2`,
		id, old, new)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *PGUserRepo) ClearRefreshToken(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx,
		`UPDATE users SET refresh_token = NULL, updated_at = NOW() WHERE id = $1`, id)
	return err
}

func (r *PGUserRepo) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	_, err := r.db.Exec(ctx,
		`UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1`, id, passwordHash)
	return err
}

func (r *PGUserRepo) UpdateAccount(ctx context.Context, id int64, fullName, email *string) (dom.User, error) {
	query := `
		UPDATE users SET
			full_name = COALESCE($2, full_name),
			email = COALESCE($3, email),
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + userCols
	return scanUser(r.db.QueryRow(ctx, query, id, fullName, email))
}

func (r *PGUserRepo) UpdateAvatar(ctx context.Context, id int64, url string) (dom.User, error) {
	query := `UPDATE users SET avatar_url = $2, updated_at = NOW() WHERE id = $1 RETURNING ` + userCols
	return scanUser(r.db.QueryRow(ctx, query, id, url))
}

func (r *PGUserRepo) UpdateCoverImage(ctx context.Context, id int64, url string) (dom.User, error) {
	query := `UPDATE users SET cover_image_url = $2, updated_at = NOW() WHERE id = $1 RETURNING ` + userCols
	return scanUser(r.db.QueryRow(ctx, query, id, url))
}

// ChannelProfile aggregates subscriber counts in a single query. viewerID 0
// means anonymous: isSubscribed is false.
func (r *PGUserRepo) ChannelProfile(ctx context.Context, username string, viewerID int64) (dom.ChannelProfile, error) {
	query := `
		SELECT u.id, u.username, u.email, u.full_name, u.avatar_url, u.cover_image_url,
		       u.created_at, u.updated_at,
		       (SELECT COUNT(*) FROM subscriptions s WHERE s.channel_id = u.id)    AS subscriber_count,
		       (SELECT COUNT(*) FROM subscriptions s WHERE s.subscriber_id = u.id) AS subscribed_to_count,
		       EXISTS (SELECT 1 FROM subscriptions s WHERE s.channel_id = u.id AND s.subscriber_id = $2)
		FROM users u WHERE u.username = $1`
	var p dom.ChannelProfile
	err := r.db.QueryRow(ctx, query, username, viewerID).Scan(
		&p.ID, &p.Username, &p.Email, &p.FullName, &p.AvatarURL, &p.CoverImageURL,
		&p.CreatedAt, &p.UpdatedAt,
		&p.SubscriberCount, &p.SubscribedToCount, &p.IsSubscribed,
	)
	return p, err
}

// ToggleSubscription deletes the row if present, inserts it otherwise.
// Returns the resulting state (true = now subscribed).
func (r *PGUserRepo) ToggleSubscription(ctx context.Context, subscriberID, channelID int64) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM subscriptions WHERE subscriber_id = $1 AND channel_id = $2`,
		subscriberID, channelID)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() > 0 {
		return false, nil
	}
	_, err = r.db.Exec(ctx,
		`INSERT INTO subscriptions (subscriber_id, channel_id) VALUES ($1, $2)
		 ON CONFLICT DO NOTHING`,
		subscriberID, channelID)
	return err == nil, err
}

func (r *PGUserRepo) WatchHistory(ctx context.Context, userID int64) ([]dom.WatchedVideo, error) {
	query := `
		SELECT v.id, v.owner_id, v.title, v.description, v.video_url, v.thumbnail_url,
		       v.duration, v.views, v.is_published, v.created_at, v.updated_at,
		       o.username, o.avatar_url, w.watched_at
		FROM watch_history w
		JOIN videos v ON v.id = w.video_id
		JOIN users o  ON o.id = v.owner_id
		WHERE w.user_id = $1
		ORDER BY w.watched_at DESC`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []dom.WatchedVideo
	for rows.Next() {
		var w dom.WatchedVideo
		if err := rows.Scan(&w.ID, &w.OwnerID, &w.Title, &w.Description, &w.VideoURL,
			&w.ThumbnailURL, &w.Duration, &w.Views, &w.IsPublished, &w.CreatedAt, &w.UpdatedAt,
			&w.OwnerUsername, &w.OwnerAvatar, &w.WatchedAt); err != nil {
			return nil, err
		}
		list = append(list, w)
	}
	return list, rows.Err()
}

// AppendWatchHistory records a view; re-watching the same video bumps it to
// the front instead of duplicating the entry.
func (r *PGUserRepo) AppendWatchHistory(ctx context.Context, userID, videoID int64) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO watch_history (user_id, video_id, watched_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (user_id, video_id) DO UPDATE SET watched_at = NOW()`,
		userID, videoID)
	return err
}
