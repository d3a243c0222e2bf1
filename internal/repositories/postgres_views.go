package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/videotube/backend/internal/db"
	"github.com/videotube/backend/internal/models"
)

// PostgresViewRepository composes the derived read views. Every method is a
// single read-only query; the one-to-many owner join is always flattened to
// the first (only) match.
type PostgresViewRepository struct {
	pool db.Pool
}

// NewPostgresViewRepository constructs a view repository backed by PostgreSQL.
func NewPostgresViewRepository(pool db.Pool) *PostgresViewRepository {
	return &PostgresViewRepository{pool: pool}
}

// ChannelProfile resolves a channel by username together with its follower
// counts and whether the viewer follows it.
func (r *PostgresViewRepository) ChannelProfile(ctx context.Context, username, viewerID string) (models.ChannelProfile, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.ChannelProfile{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var profile models.ChannelProfile
	err = conn.QueryRow(ctx, `
        SELECT u.id, u.username, u.full_name, u.email, u.avatar_url, u.cover_image_url,
               (SELECT count(*) FROM subscriptions s WHERE s.channel_id = u.id) AS subscriber_count,
               (SELECT count(*) FROM subscriptions s WHERE s.subscriber_id = u.id) AS subscribed_to_count,
               EXISTS(SELECT 1 FROM subscriptions s WHERE s.channel_id = u.id AND s.subscriber_id = $2) AS is_subscribed
        FROM users u
        WHERE u.username = $1
    `, username, viewerID).Scan(
		&profile.ID, &profile.Username, &profile.FullName, &profile.Email,
		&profile.AvatarURL, &profile.CoverImageURL,
		&profile.SubscriberCount, &profile.SubscribedToCount, &profile.IsSubscribed,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.ChannelProfile{}, ErrNotFound
		}
		return models.ChannelProfile{}, fmt.Errorf("select channel profile: %w", err)
	}
	return profile, nil
}

// ChannelStats aggregates ownership-scoped totals. Like counts join each
// like through the ownership of its target, and the per-kind counts are
// summed into TotalLikes.
func (r *PostgresViewRepository) ChannelStats(ctx context.Context, ownerID string) (models.ChannelStats, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.ChannelStats{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var stats models.ChannelStats
	err = conn.QueryRow(ctx, `
        SELECT
            (SELECT count(*) FROM videos v WHERE v.owner_id = $1),
            (SELECT COALESCE(sum(v.views), 0)::INT8 FROM videos v WHERE v.owner_id = $1),
            (SELECT count(*) FROM tweets t WHERE t.owner_id = $1),
            (SELECT count(*) FROM comments c WHERE c.owner_id = $1),
            (SELECT count(*) FROM likes l JOIN videos v ON v.id = l.video_id WHERE v.owner_id = $1),
            (SELECT count(*) FROM likes l JOIN comments c ON c.id = l.comment_id WHERE c.owner_id = $1),
            (SELECT count(*) FROM likes l JOIN tweets t ON t.id = l.tweet_id WHERE t.owner_id = $1)
    `, ownerID).Scan(
		&stats.TotalVideos, &stats.TotalViews, &stats.TotalTweets, &stats.TotalComments,
		&stats.VideoLikes, &stats.CommentLikes, &stats.TweetLikes,
	)
	if err != nil {
		return models.ChannelStats{}, fmt.Errorf("select channel stats: %w", err)
	}
	stats.TotalLikes = stats.VideoLikes + stats.CommentLikes + stats.TweetLikes
	return stats, nil
}

const videoWithOwnerColumns = `
        v.id, v.owner_id, v.title, v.description, v.video_url, v.thumbnail_url,
        v.duration, v.views, v.is_published, v.created_at, v.updated_at,
        o.username, o.full_name, o.avatar_url`

func scanVideoWithOwner(row rowScanner) (models.VideoWithOwner, error) {
	var video models.VideoWithOwner
	err := row.Scan(
		&video.ID, &video.OwnerID, &video.Title, &video.Description,
		&video.VideoURL, &video.ThumbnailURL, &video.Duration, &video.Views,
		&video.IsPublished, &video.CreatedAt, &video.UpdatedAt,
		&video.Owner.Username, &video.Owner.FullName, &video.Owner.AvatarURL,
	)
	return video, err
}

// WatchHistory resolves the user's ordered video-id list into full videos
// with projected owners, preserving the stored order. Ids pointing at
// deleted videos silently drop out of the join.
func (r *PostgresViewRepository) WatchHistory(ctx context.Context, userID string) ([]models.VideoWithOwner, error) {
	return r.queryVideos(ctx, `
        SELECT `+videoWithOwnerColumns+`
        FROM users me
        JOIN videos v ON v.id = ANY (me.watch_history)
        JOIN users o ON o.id = v.owner_id
        WHERE me.id = $1
        ORDER BY array_position(me.watch_history, v.id)
    `, userID)
}

// LikedVideos returns the videos the user has liked, joined with their
// owners. The inner join tombstone-filters likes whose video has since
// been deleted.
func (r *PostgresViewRepository) LikedVideos(ctx context.Context, userID string) ([]models.VideoWithOwner, error) {
	return r.queryVideos(ctx, `
        SELECT `+videoWithOwnerColumns+`
        FROM likes l
        JOIN videos v ON v.id = l.video_id
        JOIN users o ON o.id = v.owner_id
        WHERE l.liked_by = $1 AND l.video_id IS NOT NULL
        ORDER BY l.created_at DESC
    `, userID)
}

// listSortColumns whitelists caller-specified sort fields against
// injection; anything else falls back to recency.
var listSortColumns = map[string]string{
	"createdAt": "created_at",
	"title":     "title",
	"duration":  "duration",
	"views":     "views",
}

// ListVideos filters by owner with an optional case-insensitive title
// substring match, sorts by a whitelisted field (default newest first), and
// pages with the usual skip = (page-1)*limit arithmetic.
func (r *PostgresViewRepository) ListVideos(ctx context.Context, params ListVideosParams) ([]models.VideoWithOwner, error) {
	column, ok := listSortColumns[params.SortBy]
	if !ok {
		column = "created_at"
	}
	direction := "DESC"
	if params.SortDir == "asc" {
		direction = "ASC"
	}
	if params.Page < 1 {
		params.Page = 1
	}
	if params.Limit < 1 {
		params.Limit = 10
	}

	query := fmt.Sprintf(`
        SELECT `+videoWithOwnerColumns+`
        FROM videos v
        JOIN users o ON o.id = v.owner_id
        WHERE v.owner_id = $1 AND ($2 = '' OR v.title ILIKE '%%' || $2 || '%%')
        ORDER BY v.%s %s
        LIMIT $3 OFFSET $4
    `, column, direction)

	return r.queryVideos(ctx, query, params.OwnerID, params.Query, params.Limit, (params.Page-1)*params.Limit)
}

func (r *PostgresViewRepository) queryVideos(ctx context.Context, query string, args ...any) ([]models.VideoWithOwner, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query videos: %w", err)
	}
	defer rows.Close()

	var videos []models.VideoWithOwner
	for rows.Next() {
		video, err := scanVideoWithOwner(rows)
		if err != nil {
			return nil, fmt.Errorf("scan video: %w", err)
		}
		videos = append(videos, video)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate videos: %w", err)
	}
	return videos, nil
}

var _ ViewRepository = (*PostgresViewRepository)(nil)
