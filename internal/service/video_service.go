package service

import (
	"context"
	"errors"

	"github.com/calculuslmvt/backend101-yt/internal/apperror"
	dom "github.com/calculuslmvt/backend101-yt/internal/domain"
	"github.com/calculuslmvt/backend101-yt/internal/repo"

	"github.com/jackc/pgx/v5"
)

// VideoService covers the video reads the account subsystem needs: watching
// a video appends it to the viewer's history.
type VideoService struct {
	videos repo.VideoRepo
	users  repo.UserRepo
}

func NewVideoService(videos repo.VideoRepo, users repo.UserRepo) *VideoService {
	return &VideoService{videos: videos, users: users}
}

// Watch returns a published video, bumps its view counter and appends it to
// the viewer's watch history. History append is best-effort: a failed write
// does not fail the read.
func (s *VideoService) Watch(ctx context.Context, viewerID, videoID int64) (dom.Video, error) {
	v, err := s.videos.GetPublishedByID(ctx, videoID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return dom.Video{}, apperror.NewNotFound("video does not exist")
		}
		return dom.Video{}, apperror.NewInternal("something went wrong", err)
	}
	if err := s.videos.IncrementViews(ctx, videoID); err == nil {
		v.Views++
	}
	_ = s.users.AppendWatchHistory(ctx, viewerID, videoID)
	return v, nil
}

// ChannelVideos lists a channel's published videos, newest first.
func (s *VideoService) ChannelVideos(ctx context.Context, ownerID int64) ([]dom.Video, error) {
	list, err := s.videos.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, apperror.NewInternal("something went wrong", err)
	}
	return list, nil
}
