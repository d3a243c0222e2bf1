package models

import "time"

// User represents an account within the VideoTube platform. WatchHistory is
// an ordered list of video ids, most recently watched last. RefreshToken
// holds the single currently valid refresh token, or "" when the user has no
// active session.
type User struct {
	ID            string
	Username      string
	Email         string
	FullName      string
	PasswordHash  string
	AvatarURL     string
	CoverImageURL string
	WatchHistory  []string
	RefreshToken  string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Video is an uploaded video owned by a single user.
type Video struct {
	ID           string
	OwnerID      string
	Title        string
	Description  string
	VideoURL     string
	ThumbnailURL string
	Duration     float64
	Views        int64
	IsPublished  bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Comment is a user's comment on a video.
type Comment struct {
	ID        string
	VideoID   string
	OwnerID   string
	Content   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Tweet is a short standalone post by a user.
type Tweet struct {
	ID        string
	OwnerID   string
	Content   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TargetKind enumerates the entities a like may point at.
type TargetKind string

const (
	TargetVideo   TargetKind = "video"
	TargetComment TargetKind = "comment"
	TargetTweet   TargetKind = "tweet"
)

// LikeTarget identifies exactly one likeable entity.
type LikeTarget struct {
	Kind TargetKind
	ID   string
}

// Like records that a user liked a single target. At most one like exists
// per (actor, target) pair.
type Like struct {
	ID        string
	LikedBy   string
	Target    LikeTarget
	CreatedAt time.Time
}

// Subscription records that Subscriber follows Channel. At most one exists
// per pair, and a channel can never subscribe to itself.
type Subscription struct {
	ID           string
	ChannelID    string
	SubscriberID string
	CreatedAt    time.Time
}

// Playlist is an owned collection of videos with no duplicate entries.
type Playlist struct {
	ID          string
	OwnerID     string
	Name        string
	Description string
	VideoIDs    []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// SessionTokens groups the bearer credentials issued to authenticated users.
type SessionTokens struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// VideoOwner is the projection of a video's owner embedded in read views.
type VideoOwner struct {
	Username  string
	FullName  string
	AvatarURL string
}

// VideoWithOwner is a video joined with its owner's public profile.
type VideoWithOwner struct {
	Video
	Owner VideoOwner
}

// ChannelProfile is the derived public view of a user's channel.
type ChannelProfile struct {
	ID                string
	Username          string
	FullName          string
	Email             string
	AvatarURL         string
	CoverImageURL     string
	SubscriberCount   int64
	SubscribedToCount int64
	IsSubscribed      bool
}

// ChannelStats aggregates totals across everything a channel owns.
type ChannelStats struct {
	TotalVideos   int64
	TotalViews    int64
	TotalTweets   int64
	TotalComments int64
	VideoLikes    int64
	CommentLikes  int64
	TweetLikes    int64
	TotalLikes    int64
}
