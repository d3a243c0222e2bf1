package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/videotube/backend/internal/db"
	"github.com/videotube/backend/internal/models"
)

const commentColumns = `id, video_id, owner_id, content, created_at, updated_at`

// PostgresCommentRepository provides PostgreSQL-backed persistence for comments.
type PostgresCommentRepository struct {
	pool db.Pool
}

// NewPostgresCommentRepository constructs a comment repository backed by PostgreSQL.
func NewPostgresCommentRepository(pool db.Pool) *PostgresCommentRepository {
	return &PostgresCommentRepository{pool: pool}
}

func scanComment(row rowScanner) (models.Comment, error) {
	var comment models.Comment
	err := row.Scan(&comment.ID, &comment.VideoID, &comment.OwnerID, &comment.Content, &comment.CreatedAt, &comment.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Comment{}, ErrNotFound
		}
		return models.Comment{}, err
	}
	return comment, nil
}

// Create stores a new comment.
func (r *PostgresCommentRepository) Create(ctx context.Context, comment models.Comment) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO comments (id, video_id, owner_id, content, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `, comment.ID, comment.VideoID, comment.OwnerID, comment.Content, comment.CreatedAt, comment.UpdatedAt)
	if err != nil {
		if translated := translateConstraint(err); translated != err {
			return translated
		}
		return fmt.Errorf("insert comment: %w", err)
	}
	return nil
}

// FindByID fetches a comment by id.
func (r *PostgresCommentRepository) FindByID(ctx context.Context, id string) (models.Comment, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Comment{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	comment, err := scanComment(conn.QueryRow(ctx, `
        SELECT `+commentColumns+` FROM comments WHERE id = $1
    `, id))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return models.Comment{}, fmt.Errorf("select comment: %w", err)
	}
	return comment, err
}

// ListForVideo returns a page of comments for a video, newest first.
func (r *PostgresCommentRepository) ListForVideo(ctx context.Context, videoID string, page, limit int) ([]models.Comment, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT `+commentColumns+` FROM comments
        WHERE video_id = $1
        ORDER BY created_at DESC
        LIMIT $2 OFFSET $3
    `, videoID, limit, (page-1)*limit)
	if err != nil {
		return nil, fmt.Errorf("query comments: %w", err)
	}
	defer rows.Close()

	var comments []models.Comment
	for rows.Next() {
		comment, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, comment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate comments: %w", err)
	}
	return comments, nil
}

// UpdateIfOwner rewrites the comment content under the ownership gate.
func (r *PostgresCommentRepository) UpdateIfOwner(ctx context.Context, id, ownerID, content string) (models.Comment, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Comment{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	comment, err := scanComment(conn.QueryRow(ctx, `
        UPDATE comments SET content = $3, updated_at = now()
        WHERE id = $1 AND owner_id = $2
        RETURNING `+commentColumns+`
    `, id, ownerID, content))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return models.Comment{}, fmt.Errorf("update comment: %w", err)
	}
	return comment, err
}

// DeleteIfOwner removes the comment under the ownership gate.
func (r *PostgresCommentRepository) DeleteIfOwner(ctx context.Context, id, ownerID string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        DELETE FROM comments WHERE id = $1 AND owner_id = $2
    `, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

const tweetColumns = `id, owner_id, content, created_at, updated_at`

// PostgresTweetRepository provides PostgreSQL-backed persistence for tweets.
type PostgresTweetRepository struct {
	pool db.Pool
}

// NewPostgresTweetRepository constructs a tweet repository backed by PostgreSQL.
func NewPostgresTweetRepository(pool db.Pool) *PostgresTweetRepository {
	return &PostgresTweetRepository{pool: pool}
}

func scanTweet(row rowScanner) (models.Tweet, error) {
	var tweet models.Tweet
	err := row.Scan(&tweet.ID, &tweet.OwnerID, &tweet.Content, &tweet.CreatedAt, &tweet.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Tweet{}, ErrNotFound
		}
		return models.Tweet{}, err
	}
	return tweet, nil
}

// Create stores a new tweet.
func (r *PostgresTweetRepository) Create(ctx context.Context, tweet models.Tweet) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO tweets (id, owner_id, content, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5)
    `, tweet.ID, tweet.OwnerID, tweet.Content, tweet.CreatedAt, tweet.UpdatedAt)
	if err != nil {
		if translated := translateConstraint(err); translated != err {
			return translated
		}
		return fmt.Errorf("insert tweet: %w", err)
	}
	return nil
}

// FindByID fetches a tweet by id.
func (r *PostgresTweetRepository) FindByID(ctx context.Context, id string) (models.Tweet, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Tweet{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tweet, err := scanTweet(conn.QueryRow(ctx, `
        SELECT `+tweetColumns+` FROM tweets WHERE id = $1
    `, id))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return models.Tweet{}, fmt.Errorf("select tweet: %w", err)
	}
	return tweet, err
}

// ListForUser returns all tweets owned by the user, newest first.
func (r *PostgresTweetRepository) ListForUser(ctx context.Context, ownerID string) ([]models.Tweet, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT `+tweetColumns+` FROM tweets
        WHERE owner_id = $1
        ORDER BY created_at DESC
    `, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query tweets: %w", err)
	}
	defer rows.Close()

	var tweets []models.Tweet
	for rows.Next() {
		tweet, err := scanTweet(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tweet: %w", err)
		}
		tweets = append(tweets, tweet)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tweets: %w", err)
	}
	return tweets, nil
}

// UpdateIfOwner rewrites the tweet content under the ownership gate.
func (r *PostgresTweetRepository) UpdateIfOwner(ctx context.Context, id, ownerID, content string) (models.Tweet, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Tweet{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tweet, err := scanTweet(conn.QueryRow(ctx, `
        UPDATE tweets SET content = $3, updated_at = now()
        WHERE id = $1 AND owner_id = $2
        RETURNING `+tweetColumns+`
    `, id, ownerID, content))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return models.Tweet{}, fmt.Errorf("update tweet: %w", err)
	}
	return tweet, err
}

// DeleteIfOwner removes the tweet under the ownership gate.
func (r *PostgresTweetRepository) DeleteIfOwner(ctx context.Context, id, ownerID string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        DELETE FROM tweets WHERE id = $1 AND owner_id = $2
    `, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete tweet: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// PostgresLikeRepository provides PostgreSQL-backed persistence for likes.
type PostgresLikeRepository struct {
	pool db.Pool
}

// NewPostgresLikeRepository constructs a like repository backed by PostgreSQL.
func NewPostgresLikeRepository(pool db.Pool) *PostgresLikeRepository {
	return &PostgresLikeRepository{pool: pool}
}

func likeColumn(kind models.TargetKind) (string, error) {
	switch kind {
	case models.TargetVideo:
		return "video_id", nil
	case models.TargetComment:
		return "comment_id", nil
	case models.TargetTweet:
		return "tweet_id", nil
	default:
		return "", fmt.Errorf("unknown like target kind %q", kind)
	}
}

// Toggle deletes the like when it exists (reporting active=false) and
// creates it otherwise (reporting active=true). The create step absorbs a
// lost race via the partial unique index: a conflicting concurrent insert
// means the relation already exists, which is the desired end state.
func (r *PostgresLikeRepository) Toggle(ctx context.Context, actorID string, target models.LikeTarget) (bool, error) {
	column, err := likeColumn(target.Kind)
	if err != nil {
		return false, err
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	return toggleRelation(ctx, conn,
		`DELETE FROM likes WHERE liked_by = $1 AND `+column+` = $2`,
		[]any{actorID, target.ID},
		`INSERT INTO likes (id, liked_by, `+column+`, created_at)
         VALUES ($1, $2, $3, $4)
         ON CONFLICT DO NOTHING`,
		[]any{uuid.NewString(), actorID, target.ID, time.Now().UTC()},
	)
}

// CountForTarget counts the likes pointing at a single target.
func (r *PostgresLikeRepository) CountForTarget(ctx context.Context, target models.LikeTarget) (int64, error) {
	column, err := likeColumn(target.Kind)
	if err != nil {
		return 0, err
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var count int64
	if err := conn.QueryRow(ctx, `
        SELECT count(*) FROM likes WHERE `+column+` = $1
    `, target.ID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count likes: %w", err)
	}
	return count, nil
}

// PostgresSubscriptionRepository provides PostgreSQL-backed persistence for
// channel subscriptions.
type PostgresSubscriptionRepository struct {
	pool db.Pool
}

// NewPostgresSubscriptionRepository constructs a subscription repository backed by PostgreSQL.
func NewPostgresSubscriptionRepository(pool db.Pool) *PostgresSubscriptionRepository {
	return &PostgresSubscriptionRepository{pool: pool}
}

// Toggle subscribes when no relation exists and unsubscribes otherwise,
// with the same race semantics as like toggling. Self-subscription is
// rejected by the table's check constraint.
func (r *PostgresSubscriptionRepository) Toggle(ctx context.Context, subscriberID, channelID string) (bool, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	return toggleRelation(ctx, conn,
		`DELETE FROM subscriptions WHERE subscriber_id = $1 AND channel_id = $2`,
		[]any{subscriberID, channelID},
		`INSERT INTO subscriptions (id, subscriber_id, channel_id, created_at)
         VALUES ($1, $2, $3, $4)
         ON CONFLICT DO NOTHING`,
		[]any{uuid.NewString(), subscriberID, channelID, time.Now().UTC()},
	)
}

// ListSubscribers returns everyone following the channel.
func (r *PostgresSubscriptionRepository) ListSubscribers(ctx context.Context, channelID string) ([]models.Subscription, error) {
	return r.list(ctx, `
        SELECT id, channel_id, subscriber_id, created_at FROM subscriptions
        WHERE channel_id = $1
        ORDER BY created_at DESC
    `, channelID)
}

// ListSubscribedChannels returns every channel the user follows.
func (r *PostgresSubscriptionRepository) ListSubscribedChannels(ctx context.Context, subscriberID string) ([]models.Subscription, error) {
	return r.list(ctx, `
        SELECT id, channel_id, subscriber_id, created_at FROM subscriptions
        WHERE subscriber_id = $1
        ORDER BY created_at DESC
    `, subscriberID)
}

func (r *PostgresSubscriptionRepository) list(ctx context.Context, query, arg string) ([]models.Subscription, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("query subscriptions: %w", err)
	}
	defer rows.Close()

	var subscriptions []models.Subscription
	for rows.Next() {
		var sub models.Subscription
		if err := rows.Scan(&sub.ID, &sub.ChannelID, &sub.SubscriberID, &sub.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		subscriptions = append(subscriptions, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subscriptions: %w", err)
	}
	return subscriptions, nil
}

// toggleRelation is the shared delete-or-create primitive behind like and
// subscription toggling. It reports the resulting state of the relation.
func toggleRelation(ctx context.Context, conn *pgxpool.Conn, deleteSQL string, deleteArgs []any, insertSQL string, insertArgs []any) (bool, error) {
	tag, err := conn.Exec(ctx, deleteSQL, deleteArgs...)
	if err != nil {
		return false, fmt.Errorf("toggle delete: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return false, nil
	}

	if _, err := conn.Exec(ctx, insertSQL, insertArgs...); err != nil {
		if translated := translateConstraint(err); translated != err {
			return false, translated
		}
		return false, fmt.Errorf("toggle insert: %w", err)
	}
	// Zero inserted rows means a concurrent toggle created the relation
	// first; either way it now exists.
	return true, nil
}

var (
	_ CommentRepository      = (*PostgresCommentRepository)(nil)
	_ TweetRepository        = (*PostgresTweetRepository)(nil)
	_ LikeRepository         = (*PostgresLikeRepository)(nil)
	_ SubscriptionRepository = (*PostgresSubscriptionRepository)(nil)
)
