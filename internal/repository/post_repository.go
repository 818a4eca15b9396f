package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/lib/pq"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rebloomsa/social-publisher/internal/models"
)

const postColumns = `id, content, content_x, platforms, scheduled_at, image_query, image_url, hashtag_set, status, fb_post_id, ig_post_id, x_post_id, error_log, brand_check_passed, retry_count, published_at, created_at, updated_at`

type PostRepository interface {
	Create(ctx context.Context, post *models.Post) (string, error)
	GetByID(ctx context.Context, id string) (*models.Post, error)
	List(ctx context.Context, status *models.PostStatus) ([]*models.Post, error)
	ListDue(ctx context.Context, now time.Time) ([]*models.Post, error)
	ListPendingBetween(ctx context.Context, from, to time.Time) ([]*models.Post, error)
	ListScheduledBetween(ctx context.Context, from, to time.Time) ([]*models.Post, error)
	ListStalePublishing(ctx context.Context, updatedBefore time.Time) ([]*models.Post, error)
	CountByStatus(ctx context.Context) (map[models.PostStatus]int, error)
	ExistsScheduledAt(ctx context.Context, scheduledAt time.Time) (bool, error)
	Claim(ctx context.Context, id string) (bool, error)
	MarkBlocked(ctx context.Context, id, errorLog string) error
	Complete(ctx context.Context, id string, outcome *models.PublishOutcome) error
	Cancel(ctx context.Context, id string) (bool, error)
}

type postRepository struct {
	db *sql.DB
}

func NewPostRepository(db *sql.DB) PostRepository {
	return &postRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (*models.Post, error) {
	var (
		post        models.Post
		platforms   pq.StringArray
		contentAlt  sql.NullString
		imageQuery  sql.NullString
		imageURL    sql.NullString
		hashtagSet  sql.NullString
		status      string
		fbID        sql.NullString
		igID        sql.NullString
		xID         sql.NullString
		errorLog    sql.NullString
		publishedAt sql.NullTime
	)

	err := row.Scan(&post.ID, &post.Content, &contentAlt, &platforms, &post.ScheduledAt, &imageQuery, &imageURL,
		&hashtagSet, &status, &fbID, &igID, &xID, &errorLog, &post.BrandCheckPassed, &post.RetryCount,
		&publishedAt, &post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		return nil, err
	}

	post.Status = models.PostStatus(status)
	post.Platforms = make([]models.Platform, 0, len(platforms))
	for _, p := range platforms {
		post.Platforms = append(post.Platforms, models.Platform(p))
	}
	post.ContentAlt = nullString(contentAlt)
	post.ImageQuery = nullString(imageQuery)
	post.ImageURL = nullString(imageURL)
	post.HashtagSet = nullString(hashtagSet)
	post.FacebookPostID = nullString(fbID)
	post.InstagramPostID = nullString(igID)
	post.TwitterPostID = nullString(xID)
	post.ErrorLog = nullString(errorLog)
	if publishedAt.Valid {
		t := publishedAt.Time
		post.PublishedAt = &t
	}
	return &post, nil
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) (string, error) {
	if post.ID == "" {
		id, err := gonanoid.New()
		if err != nil {
			slog.Info(err.Error())
			return "", err
		}
		post.ID = id
	}
	if post.Status == "" {
		post.Status = models.PostStatusPending
	}

	platforms := make([]string, 0, len(post.Platforms))
	for _, p := range post.Platforms {
		platforms = append(platforms, string(p))
	}

	query := `
		INSERT INTO social_posts (id, content, content_x, platforms, scheduled_at, image_query, image_url, hashtag_set, status, brand_check_passed)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`

	var id string
	err := r.db.QueryRowContext(ctx, query, post.ID, post.Content, post.ContentAlt, pq.Array(platforms), post.ScheduledAt,
		post.ImageQuery, post.ImageURL, post.HashtagSet, string(post.Status), post.BrandCheckPassed).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}

	return id, nil
}

func (r *postRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM social_posts WHERE id = $1`

	post, err := scanPost(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return post, nil
}

func (r *postRepository) List(ctx context.Context, status *models.PostStatus) ([]*models.Post, error) {
	if status != nil {
		query := `SELECT ` + postColumns + ` FROM social_posts WHERE status = $1 ORDER BY scheduled_at ASC`
		return r.query(ctx, query, string(*status))
	}
	query := `SELECT ` + postColumns + ` FROM social_posts ORDER BY scheduled_at ASC`
	return r.query(ctx, query)
}

func (r *postRepository) ListDue(ctx context.Context, now time.Time) ([]*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM social_posts WHERE status = $1 AND scheduled_at <= $2 ORDER BY scheduled_at ASC`
	return r.query(ctx, query, string(models.PostStatusPending), now)
}

func (r *postRepository) ListPendingBetween(ctx context.Context, from, to time.Time) ([]*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM social_posts WHERE status = $1 AND scheduled_at >= $2 AND scheduled_at < $3 ORDER BY scheduled_at ASC`
	return r.query(ctx, query, string(models.PostStatusPending), from, to)
}

func (r *postRepository) ListScheduledBetween(ctx context.Context, from, to time.Time) ([]*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM social_posts WHERE scheduled_at >= $1 AND scheduled_at < $2 ORDER BY scheduled_at ASC`
	return r.query(ctx, query, from, to)
}

func (r *postRepository) ListStalePublishing(ctx context.Context, updatedBefore time.Time) ([]*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM social_posts WHERE status = $1 AND updated_at < $2 ORDER BY scheduled_at ASC`
	return r.query(ctx, query, string(models.PostStatusPublishing), updatedBefore)
}

func (r *postRepository) query(ctx context.Context, query string, args ...any) ([]*models.Post, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var posts []*models.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return posts, nil
}

func (r *postRepository) CountByStatus(ctx context.Context) (map[models.PostStatus]int, error) {
	query := `SELECT status, COUNT(*) FROM social_posts GROUP BY status`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	counts := make(map[models.PostStatus]int, len(models.AllPostStatuses))
	for _, st := range models.AllPostStatuses {
		counts[st] = 0
	}
	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		counts[models.PostStatus(status)] = count
	}
	return counts, rows.Err()
}

func (r *postRepository) ExistsScheduledAt(ctx context.Context, scheduledAt time.Time) (bool, error) {
	query := `SELECT 1 FROM social_posts WHERE scheduled_at = $1 LIMIT 1`

	var result int
	err := r.db.QueryRowContext(ctx, query, scheduledAt).Scan(&result)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		slog.Info(err.Error())
		return false, err
	}
	return result == 1, nil
}

// Claim moves a pending post to publishing. It reports false when the post
// was not pending, which means another path already owns it.
func (r *postRepository) Claim(ctx context.Context, id string) (bool, error) {
	query := `UPDATE social_posts SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`

	res, err := r.db.ExecContext(ctx, query, string(models.PostStatusPublishing), time.Now(), id, string(models.PostStatusPending))
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *postRepository) MarkBlocked(ctx context.Context, id, errorLog string) error {
	query := `UPDATE social_posts SET status = $1, brand_check_passed = FALSE, error_log = $2, updated_at = $3 WHERE id = $4`

	_, err := r.db.ExecContext(ctx, query, string(models.PostStatusBlocked), errorLog, time.Now(), id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *postRepository) Complete(ctx context.Context, id string, o *models.PublishOutcome) error {
	query := `
		UPDATE social_posts
		SET status = $1,
			fb_post_id = $2,
			ig_post_id = $3,
			x_post_id = $4,
			error_log = $5,
			brand_check_passed = TRUE,
			published_at = $6,
			image_url = COALESCE($7, image_url),
			retry_count = retry_count + $8,
			updated_at = $9
		WHERE id = $10 AND status = 'publishing'
	`

	_, err := r.db.ExecContext(ctx, query, string(o.Status), o.FacebookPostID, o.InstagramPostID, o.TwitterPostID,
		o.ErrorLog, o.PublishedAt, o.ImageURL, o.RetryIncrement, time.Now(), id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *postRepository) Cancel(ctx context.Context, id string) (bool, error) {
	query := `UPDATE social_posts SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`

	res, err := r.db.ExecContext(ctx, query, string(models.PostStatusCancelled), time.Now(), id, string(models.PostStatusPending))
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
