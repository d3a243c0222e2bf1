package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/videotube/backend/internal/db"
	"github.com/videotube/backend/internal/models"
)

// playlistColumns aggregates membership inline so every read returns the
// playlist together with its video ids in insertion order.
const playlistQuery = `
    SELECT p.id, p.owner_id, p.name, p.description, p.created_at, p.updated_at,
           COALESCE((SELECT array_agg(pv.video_id ORDER BY pv.added_at)
                     FROM playlist_videos pv WHERE pv.playlist_id = p.id), '{}'::uuid[]) AS video_ids
    FROM playlists p`

// PostgresPlaylistRepository provides PostgreSQL-backed persistence for playlists.
type PostgresPlaylistRepository struct {
	pool db.Pool
}

// NewPostgresPlaylistRepository constructs a playlist repository backed by PostgreSQL.
func NewPostgresPlaylistRepository(pool db.Pool) *PostgresPlaylistRepository {
	return &PostgresPlaylistRepository{pool: pool}
}

func scanPlaylist(row rowScanner) (models.Playlist, error) {
	var playlist models.Playlist
	err := row.Scan(&playlist.ID, &playlist.OwnerID, &playlist.Name, &playlist.Description,
		&playlist.CreatedAt, &playlist.UpdatedAt, &playlist.VideoIDs)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Playlist{}, ErrNotFound
		}
		return models.Playlist{}, err
	}
	return playlist, nil
}

// Create stores a new, empty playlist.
func (r *PostgresPlaylistRepository) Create(ctx context.Context, playlist models.Playlist) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO playlists (id, owner_id, name, description, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `, playlist.ID, playlist.OwnerID, playlist.Name, playlist.Description, playlist.CreatedAt, playlist.UpdatedAt)
	if err != nil {
		if translated := translateConstraint(err); translated != err {
			return translated
		}
		return fmt.Errorf("insert playlist: %w", err)
	}
	return nil
}

// FindByID fetches a playlist with its video ids.
func (r *PostgresPlaylistRepository) FindByID(ctx context.Context, id string) (models.Playlist, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Playlist{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	playlist, err := scanPlaylist(conn.QueryRow(ctx, playlistQuery+` WHERE p.id = $1`, id))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return models.Playlist{}, fmt.Errorf("select playlist: %w", err)
	}
	return playlist, err
}

// ListForUser returns every playlist owned by the user.
func (r *PostgresPlaylistRepository) ListForUser(ctx context.Context, ownerID string) ([]models.Playlist, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, playlistQuery+` WHERE p.owner_id = $1 ORDER BY p.created_at DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query playlists: %w", err)
	}
	defer rows.Close()

	var playlists []models.Playlist
	for rows.Next() {
		playlist, err := scanPlaylist(rows)
		if err != nil {
			return nil, fmt.Errorf("scan playlist: %w", err)
		}
		playlists = append(playlists, playlist)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate playlists: %w", err)
	}
	return playlists, nil
}

// UpdateIfOwner renames the playlist under the ownership gate.
func (r *PostgresPlaylistRepository) UpdateIfOwner(ctx context.Context, id, ownerID, name, description string) (models.Playlist, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Playlist{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE playlists SET name = $3, description = $4, updated_at = now()
        WHERE id = $1 AND owner_id = $2
    `, id, ownerID, name, description)
	if err != nil {
		return models.Playlist{}, fmt.Errorf("update playlist: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.Playlist{}, ErrNotFound
	}
	return r.FindByID(ctx, id)
}

// DeleteIfOwner removes the playlist and its membership rows under the
// ownership gate.
func (r *PostgresPlaylistRepository) DeleteIfOwner(ctx context.Context, id, ownerID string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        DELETE FROM playlists WHERE id = $1 AND owner_id = $2
    `, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete playlist: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// AddVideoIfOwner inserts the membership row with the ownership check in
// the INSERT's filter, so only the owner can ever grow the set. Adding an
// already-present video is a no-op. The refreshed playlist is returned, or
// ErrNotFound when the playlist is absent or owned by someone else.
func (r *PostgresPlaylistRepository) AddVideoIfOwner(ctx context.Context, playlistID, ownerID, videoID string) (models.Playlist, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Playlist{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO playlist_videos (playlist_id, video_id, added_at)
        SELECT p.id, $3, now() FROM playlists p
        WHERE p.id = $1 AND p.owner_id = $2
        ON CONFLICT DO NOTHING
    `, playlistID, ownerID, videoID)
	if err != nil {
		if translated := translateConstraint(err); translated != err {
			return models.Playlist{}, translated
		}
		return models.Playlist{}, fmt.Errorf("add playlist video: %w", err)
	}

	return r.findOwned(ctx, playlistID, ownerID)
}

// RemoveVideoIfOwner deletes the membership row with the ownership check in
// the DELETE's filter. Removing an absent video is a no-op.
func (r *PostgresPlaylistRepository) RemoveVideoIfOwner(ctx context.Context, playlistID, ownerID, videoID string) (models.Playlist, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Playlist{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        DELETE FROM playlist_videos pv
        USING playlists p
        WHERE pv.playlist_id = p.id AND p.id = $1 AND p.owner_id = $2 AND pv.video_id = $3
    `, playlistID, ownerID, videoID)
	if err != nil {
		return models.Playlist{}, fmt.Errorf("remove playlist video: %w", err)
	}

	return r.findOwned(ctx, playlistID, ownerID)
}

// findOwned distinguishes the membership no-op from an ownership-gate miss
// after the fact: when the playlist does not exist or is not owned by the
// caller, the gate reports ErrNotFound.
func (r *PostgresPlaylistRepository) findOwned(ctx context.Context, playlistID, ownerID string) (models.Playlist, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Playlist{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	playlist, err := scanPlaylist(conn.QueryRow(ctx, playlistQuery+` WHERE p.id = $1 AND p.owner_id = $2`, playlistID, ownerID))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return models.Playlist{}, fmt.Errorf("select owned playlist: %w", err)
	}
	return playlist, err
}

var _ PlaylistRepository = (*PostgresPlaylistRepository)(nil)
