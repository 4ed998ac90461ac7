package domain

import "time"

// User is the domain entity for an account. PasswordHash and RefreshToken
// are persistence-only: they never appear in any response.
type User struct {
	ID            int64
	Username      string
	Email         string
	FullName      string
	PasswordHash  string
	AvatarURL     string
	CoverImageURL string
	// RefreshToken is the single currently-valid refresh token, or nil when
	// the user has no active session. Written only by the session service.
	RefreshToken *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Public returns a copy safe for serialization: no password hash, no
// refresh token.
func (u User) Public() User {
	u.PasswordHash = ""
	u.RefreshToken = nil
	return u
}

// ChannelProfile is the aggregation view backing a channel page.
type ChannelProfile struct {
	User
	SubscriberCount   int64
	SubscribedToCount int64
	IsSubscribed      bool
}
