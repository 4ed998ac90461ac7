package dto

import (
	"time"

	dom "github.com/calculuslmvt/backend101-yt/internal/domain"
)

// RegisterRequest carries the non-file fields of the multipart register
// form. Avatar and cover image arrive as file parts.
type RegisterRequest struct {
	Username string `form:"username" binding:"required,min=3,max=50"`
	Email    string `form:"email" binding:"required,email"`
	FullName string `form:"fullName" binding:"required,min=1,max=120"`
	Password string `form:"password" binding:"required"`
}

// LoginRequest accepts a username or an email; at least one must be set,
// which the handler checks (binding can't express either-or).
type LoginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required,min=8"`
}

type UpdateAccountRequest struct {
	FullName *string `json:"fullName" binding:"omitempty,min=1,max=120"`
	Email    *string `json:"email" binding:"omitempty,email"`
}

// UserResponse is the public profile projection.
type UserResponse struct {
	ID            int64     `json:"id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	FullName      string    `json:"fullName"`
	AvatarURL     string    `json:"avatar"`
	CoverImageURL string    `json:"coverImage,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// LoginResponse is the login body: public profile plus in-body copies of
// both tokens (the same values are set as cookies).
type LoginResponse struct {
	User         UserResponse `json:"user"`
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
}

// TokenPairResponse is the refresh body.
type TokenPairResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// ChannelProfileResponse is the channel aggregation view.
type ChannelProfileResponse struct {
	UserResponse
	SubscriberCount   int64 `json:"subscriberCount"`
	SubscribedToCount int64 `json:"channelsSubscribedToCount"`
	IsSubscribed      bool  `json:"isSubscribed"`
}

func UserToResponse(u dom.User) UserResponse {
	return UserResponse{
		ID:            u.ID,
		Username:      u.Username,
		Email:         u.Email,
		FullName:      u.FullName,
		AvatarURL:     u.AvatarURL,
		CoverImageURL: u.CoverImageURL,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

func ChannelToResponse(p dom.ChannelProfile) ChannelProfileResponse {
	return ChannelProfileResponse{
		UserResponse:      UserToResponse(p.User),
		SubscriberCount:   p.SubscriberCount,
		SubscribedToCount: p.SubscribedToCount,
		IsSubscribed:      p.IsSubscribed,
	}
}
