package repo

import (
	"context"

	dom "github.com/calculuslmvt/backend101-yt/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

type VideoRepo interface {
	GetPublishedByID(ctx context.Context, id int64) (dom.Video, error)
	IncrementViews(ctx context.Context, id int64) error
	ListByOwner(ctx context.Context, ownerID int64) ([]dom.Video, error)
}

const videoCols = `id, owner_id, title, description, video_url, thumbnail_url, duration, views, is_published, created_at, updated_at`

type PGVideoRepo struct {
	db *pgxpool.Pool
}

func NewPGVideoRepo(db *pgxpool.Pool) *PGVideoRepo {
	return &PGVideoRepo{db: db}
}

func scanVideo(row interface{ Scan(dest ...any) error }) (dom.Video, error) {
	var v dom.Video
	err := row.Scan(&v.ID, &v.OwnerID, &v.Title, &v.Description, &v.VideoURL,
		&v.ThumbnailURL, &v.Duration, &v.Views, &v.IsPublished, &v.CreatedAt, &v.UpdatedAt)
	return v, err
}

func (r *PGVideoRepo) GetPublishedByID(ctx context.Context, id int64) (dom.Video, error) {
	query := `SELECT ` + videoCols + ` FROM videos WHERE id = $1 AND is_published`
	return scanVideo(r.db.QueryRow(ctx, query, id))
}

func (r *PGVideoRepo) IncrementViews(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx, `UPDATE videos SET views = views + 1 WHERE id = $1`, id)
	return err
}

func (r *PGVideoRepo) ListByOwner(ctx context.Context, ownerID int64) ([]dom.Video, error) {
	query := `SELECT ` + videoCols + ` FROM videos
		WHERE owner_id = $1 AND is_published ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []dom.Video
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, v)
	}
	return list, rows.Err()
}
