package dto

import (
	"time"

	dom "github.com/calculuslmvt/backend101-yt/internal/domain"
)

type VideoResponse struct {
	ID           int64     `json:"id"`
	OwnerID      int64     `json:"ownerId"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	VideoURL     string    `json:"videoFile"`
	ThumbnailURL string    `json:"thumbnail"`
	Duration     int64     `json:"duration"`
	Views        int64     `json:"views"`
	CreatedAt    time.Time `json:"createdAt"`
}

type WatchedVideoResponse struct {
	VideoResponse
	OwnerUsername string    `json:"ownerUsername"`
	OwnerAvatar   string    `json:"ownerAvatar"`
	WatchedAt     time.Time `json:"watchedAt"`
}

type WatchHistoryResponse struct {
	Items []WatchedVideoResponse `json:"items"`
}

func VideoToResponse(v dom.Video) VideoResponse {
	return VideoResponse{
		ID:           v.ID,
		OwnerID:      v.OwnerID,
		Title:        v.Title,
		Description:  v.Description,
		VideoURL:     v.VideoURL,
		ThumbnailURL: v.ThumbnailURL,
		Duration:     v.Duration,
		Views:        v.Views,
		CreatedAt:    v.CreatedAt,
	}
}

func WatchedToResponses(list []dom.WatchedVideo) []WatchedVideoResponse {
	out := make([]WatchedVideoResponse, len(list))
	for i, w := range list {
		out[i] = WatchedVideoResponse{
			VideoResponse: VideoToResponse(w.Video),
			OwnerUsername: w.OwnerUsername,
			OwnerAvatar:   w.OwnerAvatar,
			WatchedAt:     w.WatchedAt,
		}
	}
	return out
}
