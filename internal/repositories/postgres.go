package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/videotube/backend/internal/db"
	"github.com/videotube/backend/internal/models"
)

const userColumns = `id, username, email, full_name, password_hash, avatar_url, cover_image_url, watch_history, refresh_token, created_at, updated_at`

// PostgresUserRepository provides PostgreSQL-backed persistence for users.
type PostgresUserRepository struct {
	pool db.Pool
}

// NewPostgresUserRepository constructs a user repository backed by PostgreSQL.
func NewPostgresUserRepository(pool db.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID, &user.Username, &user.Email, &user.FullName,
		&user.PasswordHash, &user.AvatarURL, &user.CoverImageURL,
		&user.WatchHistory, &user.RefreshToken, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

// Create persists a new user record.
func (r *PostgresUserRepository) Create(ctx context.Context, user models.User) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO users (id, username, email, full_name, password_hash, avatar_url, cover_image_url, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
    `, user.ID, user.Username, user.Email, user.FullName, user.PasswordHash,
		user.AvatarURL, user.CoverImageURL, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		if translated := translateConstraint(err); translated != err {
			return translated
		}
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// FindByID fetches a user by id.
func (r *PostgresUserRepository) FindByID(ctx context.Context, id string) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	user, err := scanUser(conn.QueryRow(ctx, `
        SELECT `+userColumns+` FROM users WHERE id = $1
    `, id))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return models.User{}, fmt.Errorf("select user by id: %w", err)
	}
	return user, err
}

// FindByUsername fetches a user by their unique username.
func (r *PostgresUserRepository) FindByUsername(ctx context.Context, username string) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	user, err := scanUser(conn.QueryRow(ctx, `
        SELECT `+userColumns+` FROM users WHERE username = $1
    `, username))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return models.User{}, fmt.Errorf("select user by username: %w", err)
	}
	return user, err
}

// FindByUsernameOrEmail fetches the account whose username or email matches.
func (r *PostgresUserRepository) FindByUsernameOrEmail(ctx context.Context, usernameOrEmail string) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	user, err := scanUser(conn.QueryRow(ctx, `
        SELECT `+userColumns+` FROM users WHERE username = $1 OR email = $1
    `, usernameOrEmail))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return models.User{}, fmt.Errorf("select user by username or email: %w", err)
	}
	return user, err
}

// SetRefreshToken overwrites the stored refresh token unconditionally. An
// empty token revokes the session.
func (r *PostgresUserRepository) SetRefreshToken(ctx context.Context, userID, token string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE users SET refresh_token = $2, updated_at = now() WHERE id = $1
    `, userID, token)
	if err != nil {
		return fmt.Errorf("set refresh token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// RotateRefreshToken swaps old for replacement in a single compare-and-swap
// statement. When the stored token is no longer byte-equal to old (a
// concurrent refresh or a newer login replaced it, or logout cleared it),
// no row matches and ErrNotFound is returned.
func (r *PostgresUserRepository) RotateRefreshToken(ctx context.Context, userID, old, replacement string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE users
        SET refresh_token = $3, updated_at = now()
        WHERE id = $1 AND refresh_token = $2 AND refresh_token <> ''
    `, userID, old, replacement)
	if err != nil {
		return fmt.Errorf("rotate refresh token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdatePasswordHash stores a new password hash.
func (r *PostgresUserRepository) UpdatePasswordHash(ctx context.Context, userID, hash string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1
    `, userID, hash)
	if err != nil {
		return fmt.Errorf("update password hash: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateDetails changes the user's full name and email.
func (r *PostgresUserRepository) UpdateDetails(ctx context.Context, userID, fullName, email string) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	user, err := scanUser(conn.QueryRow(ctx, `
        UPDATE users SET full_name = $2, email = $3, updated_at = now()
        WHERE id = $1
        RETURNING `+userColumns+`
    `, userID, fullName, email))
	if err != nil && !errors.Is(err, ErrNotFound) {
		if translated := translateConstraint(err); translated != err {
			return models.User{}, translated
		}
		return models.User{}, fmt.Errorf("update user details: %w", err)
	}
	return user, err
}

// UpdateAvatar replaces the avatar URL.
func (r *PostgresUserRepository) UpdateAvatar(ctx context.Context, userID, avatarURL string) (models.User, error) {
	return r.updateImage(ctx, userID, "avatar_url", avatarURL)
}

// UpdateCoverImage replaces the cover image URL.
func (r *PostgresUserRepository) UpdateCoverImage(ctx context.Context, userID, coverImageURL string) (models.User, error) {
	return r.updateImage(ctx, userID, "cover_image_url", coverImageURL)
}

func (r *PostgresUserRepository) updateImage(ctx context.Context, userID, column, url string) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	user, err := scanUser(conn.QueryRow(ctx, `
        UPDATE users SET `+column+` = $2, updated_at = now()
        WHERE id = $1
        RETURNING `+userColumns+`
    `, userID, url))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return models.User{}, fmt.Errorf("update %s: %w", column, err)
	}
	return user, err
}

// AppendWatchHistory moves the video to the tail of the watch history,
// removing any earlier occurrence in the same statement.
func (r *PostgresUserRepository) AppendWatchHistory(ctx context.Context, userID, videoID string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE users
        SET watch_history = array_append(array_remove(watch_history, $2::uuid), $2::uuid),
            updated_at = now()
        WHERE id = $1
    `, userID, videoID)
	if err != nil {
		return fmt.Errorf("append watch history: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

const videoColumns = `id, owner_id, title, description, video_url, thumbnail_url, duration, views, is_published, created_at, updated_at`

// PostgresVideoRepository provides PostgreSQL-backed persistence for videos.
type PostgresVideoRepository struct {
	pool db.Pool
}

// NewPostgresVideoRepository constructs a video repository backed by PostgreSQL.
func NewPostgresVideoRepository(pool db.Pool) *PostgresVideoRepository {
	return &PostgresVideoRepository{pool: pool}
}

func scanVideo(row rowScanner) (models.Video, error) {
	var video models.Video
	err := row.Scan(
		&video.ID, &video.OwnerID, &video.Title, &video.Description,
		&video.VideoURL, &video.ThumbnailURL, &video.Duration, &video.Views,
		&video.IsPublished, &video.CreatedAt, &video.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Video{}, ErrNotFound
		}
		return models.Video{}, err
	}
	return video, nil
}

// Create stores a new video record.
func (r *PostgresVideoRepository) Create(ctx context.Context, video models.Video) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO videos (id, owner_id, title, description, video_url, thumbnail_url, duration, views, is_published, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
    `, video.ID, video.OwnerID, video.Title, video.Description, video.VideoURL,
		video.ThumbnailURL, video.Duration, video.Views, video.IsPublished,
		video.CreatedAt, video.UpdatedAt)
	if err != nil {
		if translated := translateConstraint(err); translated != err {
			return translated
		}
		return fmt.Errorf("insert video: %w", err)
	}
	return nil
}

// FindByID fetches a video by id.
func (r *PostgresVideoRepository) FindByID(ctx context.Context, id string) (models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Video{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	video, err := scanVideo(conn.QueryRow(ctx, `
        SELECT `+videoColumns+` FROM videos WHERE id = $1
    `, id))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return models.Video{}, fmt.Errorf("select video: %w", err)
	}
	return video, err
}

// IncrementViews bumps the view counter by one.
func (r *PostgresVideoRepository) IncrementViews(ctx context.Context, id string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE videos SET views = views + 1 WHERE id = $1
    `, id)
	if err != nil {
		return fmt.Errorf("increment views: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateIfOwner applies the update only when ownerID owns the video; the
// ownership check and the mutation are one statement, so a concurrent
// ownership change cannot slip between them. An empty thumbnailURL keeps
// the current thumbnail.
func (r *PostgresVideoRepository) UpdateIfOwner(ctx context.Context, id, ownerID, title, description, thumbnailURL string) (models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Video{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	video, err := scanVideo(conn.QueryRow(ctx, `
        UPDATE videos
        SET title = $3,
            description = $4,
            thumbnail_url = COALESCE(NULLIF($5, ''), thumbnail_url),
            updated_at = now()
        WHERE id = $1 AND owner_id = $2
        RETURNING `+videoColumns+`
    `, id, ownerID, title, description, thumbnailURL))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return models.Video{}, fmt.Errorf("update video: %w", err)
	}
	return video, err
}

// DeleteIfOwner removes the video only when ownerID owns it.
func (r *PostgresVideoRepository) DeleteIfOwner(ctx context.Context, id, ownerID string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        DELETE FROM videos WHERE id = $1 AND owner_id = $2
    `, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete video: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// TogglePublishIfOwner flips the publish flag under the same ownership gate.
func (r *PostgresVideoRepository) TogglePublishIfOwner(ctx context.Context, id, ownerID string) (models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Video{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	video, err := scanVideo(conn.QueryRow(ctx, `
        UPDATE videos
        SET is_published = NOT is_published, updated_at = now()
        WHERE id = $1 AND owner_id = $2
        RETURNING `+videoColumns+`
    `, id, ownerID))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return models.Video{}, fmt.Errorf("toggle publish: %w", err)
	}
	return video, err
}

var (
	_ UserRepository  = (*PostgresUserRepository)(nil)
	_ VideoRepository = (*PostgresVideoRepository)(nil)
)
