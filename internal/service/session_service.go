package service

import (
	"context"
	"errors"
	"strings"

	"github.com/calculuslmvt/backend101-yt/internal/apperror"
	dom "github.com/calculuslmvt/backend101-yt/internal/domain"
	"github.com/calculuslmvt/backend101-yt/internal/media"
	"github.com/calculuslmvt/backend101-yt/internal/repo"
	"github.com/calculuslmvt/backend101-yt/internal/token"
	"github.com/calculuslmvt/backend101-yt/internal/utils"

	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"
)

// SessionService owns the credential lifecycle: registration, login,
// logout, refresh-token rotation and password change. It is the only
// writer of the users.refresh_token column.
type SessionService struct {
	users    repo.UserRepo
	tokens   *token.Manager
	uploader media.Uploader
}

// NewSessionService returns a SessionService.
func NewSessionService(users repo.UserRepo, tokens *token.Manager, uploader media.Uploader) *SessionService {
	return &SessionService{users: users, tokens: tokens, uploader: uploader}
}

// RegisterInput carries the multipart register form. Paths point at the
// request's temp files; the service uploads them to the media host.
type RegisterInput struct {
	Username       string
	Email          string
	FullName       string
	Password       string
	AvatarPath     string
	CoverImagePath string
}

// Register creates the account: uniqueness check, mandatory avatar upload,
// bcrypt hash, insert. Usernames are stored lowercased.
func (s *SessionService) Register(ctx context.Context, in RegisterInput) (dom.User, error) {
	username := strings.ToLower(strings.TrimSpace(in.Username))
	email := strings.TrimSpace(in.Email)
	fullName := strings.TrimSpace(in.FullName)
	if username == "" || email == "" || fullName == "" || in.Password == "" {
		return dom.User{}, apperror.NewBadRequest("All fields are required")
	}
	if in.AvatarPath == "" {
		return dom.User{}, apperror.NewBadRequest("Avatar file is required")
	}

	exists, err := s.users.ExistsByUsernameOrEmail(ctx, username, email)
	if err != nil {
		return dom.User{}, apperror.NewInternal("something went wrong", err)
	}
	if exists {
		return dom.User{}, apperror.NewConflict("User with email or username already exists")
	}

	avatarURL, err := s.uploader.Upload(ctx, in.AvatarPath)
	if err != nil {
		return dom.User{}, apperror.NewBadRequest("Avatar file not uploaded")
	}
	// Cover image is optional and best-effort: a failed upload registers
	// the account without one.
	var coverURL string
	if in.CoverImagePath != "" {
		if u, err := s.uploader.Upload(ctx, in.CoverImagePath); err == nil {
			coverURL = u
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return dom.User{}, apperror.NewInternal("something went wrong", err)
	}

	u, err := s.users.Create(ctx, dom.User{
		Username:      username,
		Email:         email,
		FullName:      fullName,
		PasswordHash:  string(hash),
		AvatarURL:     avatarURL,
		CoverImageURL: coverURL,
	})
	if err != nil {
		if utils.IsPGUniqueViolation(err) {
			return dom.User{}, apperror.NewConflict("User with email or username already exists")
		}
		return dom.User{}, apperror.NewInternal("something went wrong", err)
	}
	return u.Public(), nil
}

// Login resolves the identifier against username or email, verifies the
// password, mints a token pair and persists the refresh token. The store
// write happens before any token is returned; a prior session's refresh
// token is overwritten and thereby revoked.
func (s *SessionService) Login(ctx context.Context, username, email, password string) (dom.User, string, string, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	email = strings.TrimSpace(email)
	if username == "" && email == "" {
		return dom.User{}, "", "", apperror.NewBadRequest("username or email is required")
	}

	u, err := s.users.GetByUsernameOrEmail(ctx, username, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return dom.User{}, "", "", apperror.NewNotFound("user does not exist")
		}
		return dom.User{}, "", "", apperror.NewInternal("something went wrong", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return dom.User{}, "", "", apperror.NewUnauthorized("Invalid user credentials")
	}

	access, refresh, err := s.tokens.Pair(u)
	if err != nil {
		return dom.User{}, "", "", apperror.NewInternal("Error while creating refresh and access token", err)
	}
	if err := s.users.SetRefreshToken(ctx, u.ID, refresh); err != nil {
		return dom.User{}, "", "", apperror.NewInternal("something went wrong", err)
	}
	return u.Public(), access, refresh, nil
}

// Logout clears the stored refresh token. Any outstanding refresh token for
// the user is permanently invalid afterwards; unexpired access tokens keep
// working until they expire.
func (s *SessionService) Logout(ctx context.Context, userID int64) error {
	if err := s.users.ClearRefreshToken(ctx, userID); err != nil {
		return apperror.NewInternal("something went wrong", err)
	}
	return nil
}

// Refresh validates the presented refresh token and rotates it. The rotation
// is a compare-and-swap on the stored value, so of two concurrent calls with
// the same token exactly one succeeds; the presented token is unusable after
// either outcome.
func (s *SessionService) Refresh(ctx context.Context, presented string) (string, string, error) {
	if presented == "" {
		return "", "", apperror.NewUnauthorized("unauthorized request")
	}

	claims, err := s.tokens.VerifyRefresh(presented)
	if err != nil {
		return "", "", apperror.NewUnauthorized("Invalid refresh token")
	}

	u, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", "", apperror.NewUnauthorized("Invalid refresh token")
		}
		return "", "", apperror.NewInternal("something went wrong", err)
	}
	if u.RefreshToken == nil || *u.RefreshToken != presented {
		return "", "", apperror.NewUnauthorized("Refresh Token expired or used")
	}

	access, refresh, err := s.tokens.Pair(u)
	if err != nil {
		return "", "", apperror.NewInternal("Error while creating refresh and access token", err)
	}
	swapped, err := s.users.RotateRefreshToken(ctx, u.ID, presented, refresh)
	if err != nil {
		return "", "", apperror.NewInternal("something went wrong", err)
	}
	if !swapped {
		// Lost a concurrent rotation between the read above and the swap.
		return "", "", apperror.NewUnauthorized("Refresh Token expired or used")
	}
	return access, refresh, nil
}

// ChangePassword verifies the old password and replaces the hash. The
// stored refresh token is left untouched.
func (s *SessionService) ChangePassword(ctx context.Context, userID int64, oldPassword, newPassword string) error {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperror.NewNotFound("user does not exist")
		}
		return apperror.NewInternal("something went wrong", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(oldPassword)); err != nil {
		return apperror.NewBadRequest("Invalid old password")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return apperror.NewInternal("something went wrong", err)
	}
	if err := s.users.UpdatePassword(ctx, userID, string(hash)); err != nil {
		return apperror.NewInternal("something went wrong", err)
	}
	return nil
}
