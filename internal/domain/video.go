package domain

import "time"

// Video is a published media item. Only the fields the account subsystem
// needs: lookups feed the watch history, owner info feeds channel pages.
type Video struct {
	ID           int64
	OwnerID      int64
	Title        string
	Description  string
	VideoURL     string
	ThumbnailURL string
	Duration     int64 // seconds
	Views        int64
	IsPublished  bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// WatchedVideo is one watch-history entry joined with its video and owner.
type WatchedVideo struct {
	Video
	OwnerUsername string
	OwnerAvatar   string
	WatchedAt     time.Time
}
