package handlers

import (
	"net/http"

	"github.com/videotube/backend/internal/middleware"
)

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Sessions      SessionManager
	Users         UserStore
	Videos        VideoStore
	Comments      CommentStore
	Tweets        TweetStore
	Likes         LikeStore
	Subscriptions SubscriptionStore
	Playlists     PlaylistStore
	Views         ViewStore
	Media         MediaStore
	AuthLimiter   RateLimiter
}

// RegisterRoutes wires HTTP handlers into the provided ServeMux. Everything
// under /api/v1 except register, login and refresh-token requires a valid
// access token.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	health := HealthHandler{}
	users := UserHandler{Sessions: deps.Sessions, Users: deps.Users, Views: deps.Views, Media: deps.Media, Limiter: deps.AuthLimiter}
	videos := VideoHandler{Videos: deps.Videos, Users: deps.Users, Views: deps.Views, Media: deps.Media}
	comments := CommentHandler{Comments: deps.Comments, Videos: deps.Videos}
	tweets := TweetHandler{Tweets: deps.Tweets}
	likes := LikeHandler{Likes: deps.Likes, Comments: deps.Comments, Tweets: deps.Tweets, Videos: deps.Videos, Views: deps.Views}
	subscriptions := SubscriptionHandler{Subscriptions: deps.Subscriptions, Users: deps.Users}
	playlists := PlaylistHandler{Playlists: deps.Playlists, Videos: deps.Videos}
	dashboard := DashboardHandler{Views: deps.Views}

	requireAuth := middleware.RequireAuth(deps.Sessions)
	authed := func(handler http.HandlerFunc) http.Handler {
		return requireAuth(handler)
	}

	mux.HandleFunc("GET /healthz", health.Handle)

	mux.HandleFunc("POST /api/v1/users/register", users.Register)
	mux.HandleFunc("POST /api/v1/users/login", users.Login)
	mux.HandleFunc("POST /api/v1/users/refresh-token", users.RefreshToken)
	mux.Handle("POST /api/v1/users/logout", authed(users.Logout))
	mux.Handle("POST /api/v1/users/change-password", authed(users.ChangePassword))
	mux.Handle("GET /api/v1/users/current-user", authed(users.CurrentUser))
	mux.Handle("PATCH /api/v1/users/update-userDetails", authed(users.UpdateDetails))
	mux.Handle("PATCH /api/v1/users/update-avatar", authed(users.UpdateAvatar))
	mux.Handle("PATCH /api/v1/users/update-coverImage", authed(users.UpdateCoverImage))
	mux.Handle("GET /api/v1/users/channel/{username}", authed(users.Channel))
	mux.Handle("GET /api/v1/users/watchHistory", authed(users.WatchHistory))

	mux.Handle("GET /api/v1/videos", authed(videos.List))
	mux.Handle("POST /api/v1/videos", authed(videos.Publish))
	mux.Handle("GET /api/v1/videos/{videoId}", authed(videos.Get))
	mux.Handle("PATCH /api/v1/videos/{videoId}", authed(videos.Update))
	mux.Handle("DELETE /api/v1/videos/{videoId}", authed(videos.Delete))
	mux.Handle("PATCH /api/v1/videos/toggle/publish/{videoId}", authed(videos.TogglePublish))

	mux.Handle("GET /api/v1/comments/{videoId}", authed(comments.List))
	mux.Handle("POST /api/v1/comments/{videoId}", authed(comments.Create))
	mux.Handle("PATCH /api/v1/comments/c/{commentId}", authed(comments.Update))
	mux.Handle("DELETE /api/v1/comments/c/{commentId}", authed(comments.Delete))

	mux.Handle("POST /api/v1/tweets", authed(tweets.Create))
	mux.Handle("GET /api/v1/tweets/user/{userId}", authed(tweets.ListForUser))
	mux.Handle("PATCH /api/v1/tweets/{tweetId}", authed(tweets.Update))
	mux.Handle("DELETE /api/v1/tweets/{tweetId}", authed(tweets.Delete))

	mux.Handle("POST /api/v1/likes/toggle/v/{videoId}", authed(likes.ToggleVideo))
	mux.Handle("POST /api/v1/likes/toggle/c/{commentId}", authed(likes.ToggleComment))
	mux.Handle("POST /api/v1/likes/toggle/t/{tweetId}", authed(likes.ToggleTweet))
	mux.Handle("GET /api/v1/likes/videos", authed(likes.LikedVideos))

	mux.Handle("POST /api/v1/subscriptions/c/{channelId}", authed(subscriptions.Toggle))
	mux.Handle("GET /api/v1/subscriptions/c/{channelId}", authed(subscriptions.Subscribers))
	mux.Handle("GET /api/v1/subscriptions/u/{userId}", authed(subscriptions.Subscribed))

	mux.Handle("POST /api/v1/playlists", authed(playlists.Create))
	mux.Handle("GET /api/v1/playlists/{playlistId}", authed(playlists.Get))
	mux.Handle("GET /api/v1/playlists/user/{userId}", authed(playlists.ListForUser))
	mux.Handle("PATCH /api/v1/playlists/{playlistId}", authed(playlists.Update))
	mux.Handle("DELETE /api/v1/playlists/{playlistId}", authed(playlists.Delete))
	mux.Handle("PATCH /api/v1/playlists/add/{videoId}/{playlistId}", authed(playlists.AddVideo))
	mux.Handle("PATCH /api/v1/playlists/remove/{videoId}/{playlistId}", authed(playlists.RemoveVideo))

	mux.Handle("GET /api/v1/dashboard/stats", authed(dashboard.Stats))
	mux.Handle("GET /api/v1/dashboard/videos", authed(dashboard.Videos))
}
