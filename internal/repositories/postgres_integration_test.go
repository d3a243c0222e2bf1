package repositories

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/cockroachdb/cockroach-go/v2/testserver"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/videotube/backend/internal/models"
)

var testPool *pgxpool.Pool

func TestMain(m *testing.M) {
	server, err := testserver.NewTestServer()
	if err != nil {
		fmt.Fprintf(os.Stderr, "start cockroach test server: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, server.PGURL().String())
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect to cockroach test server: %v\n", err)
		server.Stop()
		os.Exit(1)
	}

	if err := applyMigrations(ctx, pool); err != nil {
		fmt.Fprintf(os.Stderr, "apply migrations: %v\n", err)
		pool.Close()
		server.Stop()
		os.Exit(1)
	}

	testPool = pool

	code := m.Run()

	pool.Close()
	server.Stop()

	os.Exit(code)
}

func TestPostgresUserRepository_CreateAndFind(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	repo := NewPostgresUserRepository(testPool)
	user := createTestUser(t, repo, "alice")

	dup := user
	dup.ID = uuid.NewString()
	if err := repo.Create(ctx, dup); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict creating duplicate username, got %v", err)
	}

	fetched, err := repo.FindByUsernameOrEmail(ctx, user.Email)
	if err != nil {
		t.Fatalf("find by email: %v", err)
	}
	if fetched.ID != user.ID || fetched.Username != user.Username {
		t.Fatalf("unexpected user fetched: %+v", fetched)
	}

	if _, err := repo.FindByUsername(ctx, "nobody"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown username, got %v", err)
	}

	updated, err := repo.UpdateDetails(ctx, user.ID, "Alice Updated", "alice2@example.com")
	if err != nil {
		t.Fatalf("update details: %v", err)
	}
	if updated.FullName != "Alice Updated" || updated.Email != "alice2@example.com" {
		t.Fatalf("expected updated fields to persist, got %+v", updated)
	}
}

func TestPostgresUserRepository_RefreshTokenRotation(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	repo := NewPostgresUserRepository(testPool)
	user := createTestUser(t, repo, "alice")

	if err := repo.SetRefreshToken(ctx, user.ID, "token-one"); err != nil {
		t.Fatalf("set refresh token: %v", err)
	}

	if err := repo.RotateRefreshToken(ctx, user.ID, "token-one", "token-two"); err != nil {
		t.Fatalf("rotate refresh token: %v", err)
	}

	// The superseded token must no longer rotate.
	if err := repo.RotateRefreshToken(ctx, user.ID, "token-one", "token-three"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound rotating a stale token, got %v", err)
	}

	fetched, err := repo.FindByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("find user: %v", err)
	}
	if fetched.RefreshToken != "token-two" {
		t.Fatalf("expected stored token to stay token-two, got %q", fetched.RefreshToken)
	}

	// Revocation clears the stored token, and nothing rotates off an
	// empty slot.
	if err := repo.SetRefreshToken(ctx, user.ID, ""); err != nil {
		t.Fatalf("clear refresh token: %v", err)
	}
	if err := repo.RotateRefreshToken(ctx, user.ID, "", "token-four"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound rotating after revocation, got %v", err)
	}
}

func TestPostgresVideoRepository_OwnershipGate(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	userRepo := NewPostgresUserRepository(testPool)
	owner := createTestUser(t, userRepo, "owner")
	intruder := createTestUser(t, userRepo, "intruder")

	videoRepo := NewPostgresVideoRepository(testPool)
	video := createTestVideo(t, videoRepo, owner.ID, "Original Title")

	if _, err := videoRepo.UpdateIfOwner(ctx, video.ID, intruder.ID, "Hijacked", "nope", ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for non-owner update, got %v", err)
	}
	if err := videoRepo.DeleteIfOwner(ctx, video.ID, intruder.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for non-owner delete, got %v", err)
	}

	fetched, err := videoRepo.FindByID(ctx, video.ID)
	if err != nil {
		t.Fatalf("find video after blocked mutations: %v", err)
	}
	if fetched.Title != "Original Title" {
		t.Fatalf("expected video untouched, got title %q", fetched.Title)
	}

	updated, err := videoRepo.UpdateIfOwner(ctx, video.ID, owner.ID, "New Title", "new description", "")
	if err != nil {
		t.Fatalf("owner update: %v", err)
	}
	if updated.Title != "New Title" || updated.ThumbnailURL != video.ThumbnailURL {
		t.Fatalf("unexpected updated video: %+v", updated)
	}

	toggled, err := videoRepo.TogglePublishIfOwner(ctx, video.ID, owner.ID)
	if err != nil {
		t.Fatalf("toggle publish: %v", err)
	}
	if toggled.IsPublished == video.IsPublished {
		t.Fatalf("expected publish flag to flip, got %v", toggled.IsPublished)
	}

	if err := videoRepo.DeleteIfOwner(ctx, video.ID, owner.ID); err != nil {
		t.Fatalf("owner delete: %v", err)
	}
	if _, err := videoRepo.FindByID(ctx, video.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestPostgresLikeRepository_ToggleIdempotence(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	userRepo := NewPostgresUserRepository(testPool)
	owner := createTestUser(t, userRepo, "owner")
	fan := createTestUser(t, userRepo, "fan")

	videoRepo := NewPostgresVideoRepository(testPool)
	video := createTestVideo(t, videoRepo, owner.ID, "Likeable")

	likeRepo := NewPostgresLikeRepository(testPool)
	target := models.LikeTarget{Kind: models.TargetVideo, ID: video.ID}

	active, err := likeRepo.Toggle(ctx, fan.ID, target)
	if err != nil {
		t.Fatalf("first toggle: %v", err)
	}
	if !active {
		t.Fatalf("expected first toggle to activate the like")
	}

	count, err := likeRepo.CountForTarget(ctx, target)
	if err != nil {
		t.Fatalf("count likes: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 like, got %d", count)
	}

	active, err = likeRepo.Toggle(ctx, fan.ID, target)
	if err != nil {
		t.Fatalf("second toggle: %v", err)
	}
	if active {
		t.Fatalf("expected second toggle to deactivate the like")
	}

	count, err = likeRepo.CountForTarget(ctx, target)
	if err != nil {
		t.Fatalf("count likes after untoggle: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected 0 likes, got %d", count)
	}

	// The store does not verify targets: a like against an id that no
	// longer exists is accepted and left for the read views to skip.
	missing := models.LikeTarget{Kind: models.TargetVideo, ID: uuid.NewString()}
	active, err = likeRepo.Toggle(ctx, fan.ID, missing)
	if err != nil {
		t.Fatalf("toggle on absent video: %v", err)
	}
	if !active {
		t.Fatalf("expected dangling like to be recorded")
	}

	liked, err := NewPostgresViewRepository(testPool).LikedVideos(ctx, fan.ID)
	if err != nil {
		t.Fatalf("liked videos: %v", err)
	}
	if len(liked) != 0 {
		t.Fatalf("expected the dangling like to stay out of the view, got %+v", liked)
	}
}

func TestPostgresSubscriptionRepository_ToggleAndProfile(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	userRepo := NewPostgresUserRepository(testPool)
	channel := createTestUser(t, userRepo, "channel")
	fan := createTestUser(t, userRepo, "fan")

	subRepo := NewPostgresSubscriptionRepository(testPool)
	views := NewPostgresViewRepository(testPool)

	active, err := subRepo.Toggle(ctx, fan.ID, channel.ID)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if !active {
		t.Fatalf("expected subscription to activate")
	}

	profile, err := views.ChannelProfile(ctx, channel.Username, fan.ID)
	if err != nil {
		t.Fatalf("channel profile: %v", err)
	}
	if profile.SubscriberCount != 1 || !profile.IsSubscribed {
		t.Fatalf("unexpected profile: %+v", profile)
	}

	// The same profile viewed by the channel itself is not subscribed.
	profile, err = views.ChannelProfile(ctx, channel.Username, channel.ID)
	if err != nil {
		t.Fatalf("channel profile as owner: %v", err)
	}
	if profile.IsSubscribed {
		t.Fatalf("expected owner view to report not subscribed")
	}

	subs, err := subRepo.ListSubscribedChannels(ctx, fan.ID)
	if err != nil {
		t.Fatalf("list subscribed channels: %v", err)
	}
	if len(subs) != 1 || subs[0].ChannelID != channel.ID {
		t.Fatalf("unexpected subscriptions: %+v", subs)
	}

	active, err = subRepo.Toggle(ctx, fan.ID, channel.ID)
	if err != nil {
		t.Fatalf("unsubscribe: %v", err)
	}
	if active {
		t.Fatalf("expected second toggle to unsubscribe")
	}

	if _, err := subRepo.Toggle(ctx, fan.ID, fan.ID); err == nil {
		t.Fatalf("expected self-subscription to be rejected")
	}
}

func TestPostgresViewRepository_LikedVideosTombstone(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	userRepo := NewPostgresUserRepository(testPool)
	owner := createTestUser(t, userRepo, "owner")
	fan := createTestUser(t, userRepo, "fan")

	videoRepo := NewPostgresVideoRepository(testPool)
	kept := createTestVideo(t, videoRepo, owner.ID, "Kept")
	doomed := createTestVideo(t, videoRepo, owner.ID, "Doomed")

	likeRepo := NewPostgresLikeRepository(testPool)
	for _, id := range []string{kept.ID, doomed.ID} {
		if _, err := likeRepo.Toggle(ctx, fan.ID, models.LikeTarget{Kind: models.TargetVideo, ID: id}); err != nil {
			t.Fatalf("like video %s: %v", id, err)
		}
	}

	if err := videoRepo.DeleteIfOwner(ctx, doomed.ID, owner.ID); err != nil {
		t.Fatalf("delete video: %v", err)
	}

	// The like row outlives its video; only the view hides it.
	count, err := likeRepo.CountForTarget(ctx, models.LikeTarget{Kind: models.TargetVideo, ID: doomed.ID})
	if err != nil {
		t.Fatalf("count likes on deleted video: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected the dangling like to survive the delete, got %d", count)
	}

	views := NewPostgresViewRepository(testPool)
	liked, err := views.LikedVideos(ctx, fan.ID)
	if err != nil {
		t.Fatalf("liked videos: %v", err)
	}
	if len(liked) != 1 || liked[0].ID != kept.ID {
		t.Fatalf("expected only the surviving video, got %+v", liked)
	}
	if liked[0].Owner.Username != owner.Username {
		t.Fatalf("expected owner projection, got %+v", liked[0].Owner)
	}
}

func TestPostgresViewRepository_WatchHistoryOrderAndDedup(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	userRepo := NewPostgresUserRepository(testPool)
	owner := createTestUser(t, userRepo, "owner")
	viewer := createTestUser(t, userRepo, "viewer")

	videoRepo := NewPostgresVideoRepository(testPool)
	first := createTestVideo(t, videoRepo, owner.ID, "First")
	second := createTestVideo(t, videoRepo, owner.ID, "Second")

	// Watch first, then second, then first again. The rewatch moves
	// first to the end instead of duplicating it.
	for _, id := range []string{first.ID, second.ID, first.ID} {
		if err := userRepo.AppendWatchHistory(ctx, viewer.ID, id); err != nil {
			t.Fatalf("append watch history %s: %v", id, err)
		}
	}

	views := NewPostgresViewRepository(testPool)
	history, err := views.WatchHistory(ctx, viewer.ID)
	if err != nil {
		t.Fatalf("watch history: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 history entries, got %d", len(history))
	}
	if history[0].ID != second.ID || history[1].ID != first.ID {
		t.Fatalf("unexpected history order: %s, %s", history[0].Title, history[1].Title)
	}
}

func TestPostgresViewRepository_ListVideos(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	userRepo := NewPostgresUserRepository(testPool)
	owner := createTestUser(t, userRepo, "owner")
	other := createTestUser(t, userRepo, "other")

	videoRepo := NewPostgresVideoRepository(testPool)
	base := time.Now().UTC().Add(-time.Hour)
	titles := []string{"Go tutorial", "Go advanced", "Cooking show"}
	for i, title := range titles {
		video := models.Video{
			ID:          uuid.NewString(),
			OwnerID:     owner.ID,
			Title:       title,
			VideoURL:    "https://cdn.example.com/" + uuid.NewString(),
			Views:       int64(i * 10),
			IsPublished: true,
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
			UpdatedAt:   base.Add(time.Duration(i) * time.Minute),
		}
		if err := videoRepo.Create(ctx, video); err != nil {
			t.Fatalf("create video %q: %v", title, err)
		}
	}
	createTestVideo(t, videoRepo, other.ID, "Go but someone else's")

	views := NewPostgresViewRepository(testPool)

	listed, err := views.ListVideos(ctx, ListVideosParams{OwnerID: owner.ID, Query: "go", Page: 1, Limit: 10})
	if err != nil {
		t.Fatalf("list videos: %v", err)
	}
	if len(listed) != 2 {
		t.Fatalf("expected 2 matches for %q, got %d", "go", len(listed))
	}
	// Default sort is newest first.
	if listed[0].Title != "Go advanced" || listed[1].Title != "Go tutorial" {
		t.Fatalf("unexpected order: %s, %s", listed[0].Title, listed[1].Title)
	}

	listed, err = views.ListVideos(ctx, ListVideosParams{OwnerID: owner.ID, SortBy: "views", SortDir: "asc", Page: 1, Limit: 2})
	if err != nil {
		t.Fatalf("list videos by views: %v", err)
	}
	if len(listed) != 2 || listed[0].Views > listed[1].Views {
		t.Fatalf("expected ascending views page of 2, got %+v", listed)
	}

	listed, err = views.ListVideos(ctx, ListVideosParams{OwnerID: owner.ID, SortBy: "views", SortDir: "asc", Page: 2, Limit: 2})
	if err != nil {
		t.Fatalf("list videos page 2: %v", err)
	}
	if len(listed) != 1 {
		t.Fatalf("expected final page of 1, got %d", len(listed))
	}
}

func TestPostgresViewRepository_ChannelStats(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	userRepo := NewPostgresUserRepository(testPool)
	owner := createTestUser(t, userRepo, "owner")
	fan := createTestUser(t, userRepo, "fan")

	videoRepo := NewPostgresVideoRepository(testPool)
	video := createTestVideo(t, videoRepo, owner.ID, "Counted")
	for i := 0; i < 3; i++ {
		if err := videoRepo.IncrementViews(ctx, video.ID); err != nil {
			t.Fatalf("increment views: %v", err)
		}
	}

	tweetRepo := NewPostgresTweetRepository(testPool)
	tweet := models.Tweet{
		ID: uuid.NewString(), OwnerID: owner.ID, Content: "hello",
		CreatedAt: time.Now().UTC(), UpdatedAt: time.Now().UTC(),
	}
	if err := tweetRepo.Create(ctx, tweet); err != nil {
		t.Fatalf("create tweet: %v", err)
	}

	likeRepo := NewPostgresLikeRepository(testPool)
	if _, err := likeRepo.Toggle(ctx, fan.ID, models.LikeTarget{Kind: models.TargetVideo, ID: video.ID}); err != nil {
		t.Fatalf("like video: %v", err)
	}
	if _, err := likeRepo.Toggle(ctx, fan.ID, models.LikeTarget{Kind: models.TargetTweet, ID: tweet.ID}); err != nil {
		t.Fatalf("like tweet: %v", err)
	}

	views := NewPostgresViewRepository(testPool)
	stats, err := views.ChannelStats(ctx, owner.ID)
	if err != nil {
		t.Fatalf("channel stats: %v", err)
	}

	if stats.TotalVideos != 1 || stats.TotalViews != 3 || stats.TotalTweets != 1 {
		t.Fatalf("unexpected totals: %+v", stats)
	}
	if stats.VideoLikes != 1 || stats.TweetLikes != 1 || stats.TotalLikes != 2 {
		t.Fatalf("unexpected like totals: %+v", stats)
	}
}

func TestPostgresPlaylistRepository_Membership(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	userRepo := NewPostgresUserRepository(testPool)
	owner := createTestUser(t, userRepo, "owner")
	intruder := createTestUser(t, userRepo, "intruder")

	videoRepo := NewPostgresVideoRepository(testPool)
	video := createTestVideo(t, videoRepo, owner.ID, "Playlisted")

	playlistRepo := NewPostgresPlaylistRepository(testPool)
	playlist := models.Playlist{
		ID: uuid.NewString(), OwnerID: owner.ID, Name: "Favourites",
		CreatedAt: time.Now().UTC(), UpdatedAt: time.Now().UTC(),
	}
	if err := playlistRepo.Create(ctx, playlist); err != nil {
		t.Fatalf("create playlist: %v", err)
	}

	updated, err := playlistRepo.AddVideoIfOwner(ctx, playlist.ID, owner.ID, video.ID)
	if err != nil {
		t.Fatalf("add video: %v", err)
	}
	if len(updated.VideoIDs) != 1 || updated.VideoIDs[0] != video.ID {
		t.Fatalf("unexpected membership: %+v", updated.VideoIDs)
	}

	// Adding the same video again is a no-op, not an error.
	updated, err = playlistRepo.AddVideoIfOwner(ctx, playlist.ID, owner.ID, video.ID)
	if err != nil {
		t.Fatalf("re-add video: %v", err)
	}
	if len(updated.VideoIDs) != 1 {
		t.Fatalf("expected membership to stay at 1, got %d", len(updated.VideoIDs))
	}

	if _, err := playlistRepo.AddVideoIfOwner(ctx, playlist.ID, intruder.ID, video.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for non-owner add, got %v", err)
	}

	updated, err = playlistRepo.RemoveVideoIfOwner(ctx, playlist.ID, owner.ID, video.ID)
	if err != nil {
		t.Fatalf("remove video: %v", err)
	}
	if len(updated.VideoIDs) != 0 {
		t.Fatalf("expected empty membership, got %+v", updated.VideoIDs)
	}
}

func TestPostgresCommentRepository_Pagination(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	userRepo := NewPostgresUserRepository(testPool)
	owner := createTestUser(t, userRepo, "owner")

	videoRepo := NewPostgresVideoRepository(testPool)
	video := createTestVideo(t, videoRepo, owner.ID, "Discussed")

	commentRepo := NewPostgresCommentRepository(testPool)
	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		comment := models.Comment{
			ID: uuid.NewString(), VideoID: video.ID, OwnerID: owner.ID,
			Content:   fmt.Sprintf("comment %d", i),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
			UpdatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := commentRepo.Create(ctx, comment); err != nil {
			t.Fatalf("create comment %d: %v", i, err)
		}
	}

	page, err := commentRepo.ListForVideo(ctx, video.ID, 1, 2)
	if err != nil {
		t.Fatalf("list comments: %v", err)
	}
	if len(page) != 2 || page[0].Content != "comment 4" || page[1].Content != "comment 3" {
		t.Fatalf("unexpected first page: %+v", page)
	}

	page, err = commentRepo.ListForVideo(ctx, video.ID, 3, 2)
	if err != nil {
		t.Fatalf("list comments page 3: %v", err)
	}
	if len(page) != 1 || page[0].Content != "comment 0" {
		t.Fatalf("unexpected last page: %+v", page)
	}
}

func applyMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	migrationsDir := filepath.Join("..", "..", "migrations")
	entries, err := os.ReadDir(migrationsDir)
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		contents, err := os.ReadFile(filepath.Join(migrationsDir, entry.Name()))
		if err != nil {
			return fmt.Errorf("read migration %s: %w", entry.Name(), err)
		}

		if _, err := pool.Exec(ctx, string(contents)); err != nil {
			return fmt.Errorf("apply migration %s: %w", entry.Name(), err)
		}
	}

	return nil
}

func resetDatabase(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	conn, err := testPool.Acquire(ctx)
	if err != nil {
		t.Fatalf("acquire connection: %v", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "TRUNCATE TABLE playlist_videos, playlists, subscriptions, likes, tweets, comments, videos, users CASCADE"); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}
}

func createTestUser(t *testing.T, repo *PostgresUserRepository, username string) models.User {
	t.Helper()
	user := models.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        username + "@example.com",
		FullName:     "Test " + username,
		PasswordHash: "password-hash",
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}
	if err := repo.Create(context.Background(), user); err != nil {
		t.Fatalf("create test user %s: %v", username, err)
	}
	return user
}

func createTestVideo(t *testing.T, repo *PostgresVideoRepository, ownerID, title string) models.Video {
	t.Helper()
	video := models.Video{
		ID:           uuid.NewString(),
		OwnerID:      ownerID,
		Title:        title,
		Description:  "about " + title,
		VideoURL:     "https://cdn.example.com/videos/" + uuid.NewString(),
		ThumbnailURL: "https://cdn.example.com/thumbs/" + uuid.NewString(),
		Duration:     120,
		IsPublished:  true,
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}
	if err := repo.Create(context.Background(), video); err != nil {
		t.Fatalf("create test video %s: %v", title, err)
	}
	return video
}
