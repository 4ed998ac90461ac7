package service

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/calculuslmvt/backend101-yt/internal/apperror"
	"github.com/calculuslmvt/backend101-yt/internal/cache"
	dom "github.com/calculuslmvt/backend101-yt/internal/domain"
	"github.com/calculuslmvt/backend101-yt/internal/media"
	"github.com/calculuslmvt/backend101-yt/internal/repo"
	"github.com/calculuslmvt/backend101-yt/internal/utils"

	"github.com/jackc/pgx/v5"
	"golang.org/x/sync/singleflight"
)

// UserService handles profile reads and mutations plus the two aggregation
// views. If cache is nil, channel profiles are read straight from the store.
type UserService struct {
	users    repo.UserRepo
	uploader media.Uploader
	cache    *cache.ChannelCache
	sf       singleflight.Group
}

// NewUserService returns a UserService. c may be nil to disable caching.
func NewUserService(users repo.UserRepo, uploader media.Uploader, c *cache.ChannelCache) *UserService {
	return &UserService{users: users, uploader: uploader, cache: c}
}

// Me returns the caller's public profile.
func (s *UserService) Me(ctx context.Context, userID int64) (dom.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return dom.User{}, apperror.NewNotFound("user does not exist")
		}
		return dom.User{}, apperror.NewInternal("something went wrong", err)
	}
	return u.Public(), nil
}

// UpdateAccount patches fullName and/or email.
func (s *UserService) UpdateAccount(ctx context.Context, userID int64, fullName, email *string) (dom.User, error) {
	if fullName == nil && email == nil {
		return dom.User{}, apperror.NewBadRequest("All fields are required")
	}
	if fullName != nil {
		trimmed := strings.TrimSpace(*fullName)
		if trimmed == "" {
			return dom.User{}, apperror.NewBadRequest("All fields are required")
		}
		fullName = &trimmed
	}
	u, err := s.users.UpdateAccount(ctx, userID, fullName, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return dom.User{}, apperror.NewNotFound("user does not exist")
		}
		if utils.IsPGUniqueViolation(err) {
			return dom.User{}, apperror.NewConflict("User with email or username already exists")
		}
		return dom.User{}, apperror.NewInternal("something went wrong", err)
	}
	s.invalidateChannel(ctx, u.Username)
	return u.Public(), nil
}

// UpdateAvatar uploads the new avatar and stores its URL.
func (s *UserService) UpdateAvatar(ctx context.Context, userID int64, localPath string) (dom.User, error) {
	return s.updateImage(ctx, userID, localPath, s.users.UpdateAvatar, "Avatar file not uploaded")
}

// UpdateCoverImage uploads the new cover image and stores its URL.
func (s *UserService) UpdateCoverImage(ctx context.Context, userID int64, localPath string) (dom.User, error) {
	return s.updateImage(ctx, userID, localPath, s.users.UpdateCoverImage, "Cover image not uploaded")
}

func (s *UserService) updateImage(ctx context.Context, userID int64, localPath string,
	store func(context.Context, int64, string) (dom.User, error), failMsg string) (dom.User, error) {

	url, err := s.uploader.Upload(ctx, localPath)
	if err != nil {
		return dom.User{}, apperror.NewBadRequest(failMsg)
	}
	u, err := store(ctx, userID, url)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return dom.User{}, apperror.NewNotFound("user does not exist")
		}
		return dom.User{}, apperror.NewInternal("something went wrong", err)
	}
	s.invalidateChannel(ctx, u.Username)
	return u.Public(), nil
}

// ChannelProfile returns the channel aggregation view, cached per
// (channel, viewer) and deduplicated under concurrent misses.
func (s *UserService) ChannelProfile(ctx context.Context, username string, viewerID int64) (dom.ChannelProfile, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" {
		return dom.ChannelProfile{}, apperror.NewBadRequest("username is missing")
	}
	if s.cache != nil {
		key := "channel:" + username + ":" + strconv.FormatInt(viewerID, 10)
		v, err, _ := s.sf.Do(key, func() (interface{}, error) {
			if p, err := s.cache.Get(ctx, username, viewerID); err == nil && p != nil {
				return *p, nil
			}
			p, err := s.loadChannel(ctx, username, viewerID)
			if err != nil {
				return dom.ChannelProfile{}, err
			}
			_ = s.cache.Set(ctx, viewerID, p)
			return p, nil
		})
		if err != nil {
			return dom.ChannelProfile{}, err
		}
		return v.(dom.ChannelProfile), nil
	}
	return s.loadChannel(ctx, username, viewerID)
}

func (s *UserService) loadChannel(ctx context.Context, username string, viewerID int64) (dom.ChannelProfile, error) {
	p, err := s.users.ChannelProfile(ctx, username, viewerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return dom.ChannelProfile{}, apperror.NewNotFound("channel does not exist")
		}
		return dom.ChannelProfile{}, apperror.NewInternal("something went wrong", err)
	}
	p.User = p.User.Public()
	return p, nil
}

// ToggleSubscription subscribes or unsubscribes the caller to a channel.
func (s *UserService) ToggleSubscription(ctx context.Context, subscriberID, channelID int64) (bool, error) {
	if subscriberID == channelID {
		return false, apperror.NewBadRequest("cannot subscribe to your own channel")
	}
	channel, err := s.users.GetByID(ctx, channelID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, apperror.NewNotFound("channel does not exist")
		}
		return false, apperror.NewInternal("something went wrong", err)
	}
	subscribed, err := s.users.ToggleSubscription(ctx, subscriberID, channelID)
	if err != nil {
		return false, apperror.NewInternal("something went wrong", err)
	}
	s.invalidateChannel(ctx, channel.Username)
	return subscribed, nil
}

// WatchHistory returns the caller's watch history, most recent first.
func (s *UserService) WatchHistory(ctx context.Context, userID int64) ([]dom.WatchedVideo, error) {
	list, err := s.users.WatchHistory(ctx, userID)
	if err != nil {
		return nil, apperror.NewInternal("something went wrong", err)
	}
	return list, nil
}

func (s *UserService) invalidateChannel(ctx context.Context, username string) {
	if s.cache != nil {
		_ = s.cache.Invalidate(ctx, username)
	}
}
