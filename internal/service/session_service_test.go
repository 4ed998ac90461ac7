package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/calculuslmvt/backend101-yt/internal/apperror"
	dom "github.com/calculuslmvt/backend101-yt/internal/domain"
	"github.com/calculuslmvt/backend101-yt/internal/token"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// fakeUserRepo is an in-memory UserRepo for service tests.
type fakeUserRepo struct {
	nextID  int64
	users   map[int64]*dom.User
	history map[int64][]int64
	subs    map[[2]int64]bool
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		nextID:  1,
		users:   make(map[int64]*dom.User),
		history: make(map[int64][]int64),
		subs:    make(map[[2]int64]bool),
	}
}

func (f *fakeUserRepo) Create(_ context.Context, u dom.User) (dom.User, error) {
	u.ID = f.nextID
	f.nextID++
	now := time.Now()
	u.CreatedAt, u.UpdatedAt = now, now
	f.users[u.ID] = &u
	return u, nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id int64) (dom.User, error) {
	u, ok := f.users[id]
	if !ok {
		return dom.User{}, pgx.ErrNoRows
	}
	return *u, nil
}

func (f *fakeUserRepo) GetByUsernameOrEmail(_ context.Context, username, email string) (dom.User, error) {
	for _, u := range f.users {
		if (username != "" && u.Username == username) || (email != "" && u.Email == email) {
			return *u, nil
		}
	}
	return dom.User{}, pgx.ErrNoRows
}

func (f *fakeUserRepo) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	_, err := f.GetByUsernameOrEmail(ctx, username, email)
	return err == nil, nil
}

func (f *fakeUserRepo) SetRefreshToken(_ context.Context, id int64, tok string) error {
	f.users[id].RefreshToken = &tok
	return nil
}

func (f *fakeUserRepo) RotateRefreshToken(_ context.Context, id int64, old, replacement string) (bool, error) {
	u, ok := f.users[id]
	if !ok || u.RefreshToken == nil || *u.RefreshToken != old {
		return false, nil
	}
	u.RefreshToken = &replacement
	return true, nil
}

func (f *fakeUserRepo) ClearRefreshToken(_ context.Context, id int64) error {
	f.users[id].RefreshToken = nil
	return nil
}

func (f *fakeUserRepo) UpdatePassword(_ context.Context, id int64, hash string) error {
	f.users[id].PasswordHash = hash
	return nil
}

func (f *fakeUserRepo) UpdateAccount(_ context.Context, id int64, fullName, email *string) (dom.User, error) {
	u, ok := f.users[id]
	if !ok {
		return dom.User{}, pgx.ErrNoRows
	}
	if fullName != nil {
		u.FullName = *fullName
	}
	if email != nil {
		u.Email = *email
	}
	return *u, nil
}

func (f *fakeUserRepo) UpdateAvatar(_ context.Context, id int64, url string) (dom.User, error) {
	u, ok := f.users[id]
	if !ok {
		return dom.User{}, pgx.ErrNoRows
	}
	u.AvatarURL = url
	return *u, nil
}

func (f *fakeUserRepo) UpdateCoverImage(_ context.Context, id int64, url string) (dom.User, error) {
	u, ok := f.users[id]
	if !ok {
		return dom.User{}, pgx.ErrNoRows
	}
	u.CoverImageURL = url
	return *u, nil
}

func (f *fakeUserRepo) ChannelProfile(_ context.Context, username string, viewerID int64) (dom.ChannelProfile, error) {
	for _, u := range f.users {
		if u.Username == username {
			p := dom.ChannelProfile{User: *u}
			for pair, ok := range f.subs {
				if !ok {
					continue
				}
				if pair[1] == u.ID {
					p.SubscriberCount++
					if pair[0] == viewerID {
						p.IsSubscribed = true
					}
				}
				if pair[0] == u.ID {
					p.SubscribedToCount++
				}
			}
			return p, nil
		}
	}
	return dom.ChannelProfile{}, pgx.ErrNoRows
}

func (f *fakeUserRepo) ToggleSubscription(_ context.Context, subscriberID, channelID int64) (bool, error) {
	key := [2]int64{subscriberID, channelID}
	if f.subs[key] {
		delete(f.subs, key)
		return false, nil
	}
	f.subs[key] = true
	return true, nil
}

func (f *fakeUserRepo) WatchHistory(_ context.Context, userID int64) ([]dom.WatchedVideo, error) {
	var list []dom.WatchedVideo
	ids := f.history[userID]
	for i := len(ids) - 1; i >= 0; i-- {
		list = append(list, dom.WatchedVideo{Video: dom.Video{ID: ids[i]}})
	}
	return list, nil
}

func (f *fakeUserRepo) AppendWatchHistory(_ context.Context, userID, videoID int64) error {
	f.history[userID] = append(f.history[userID], videoID)
	return nil
}

// fakeUploader returns a deterministic URL per path.
type fakeUploader struct {
	fail bool
}

func (u fakeUploader) Upload(_ context.Context, localPath string) (string, error) {
	if u.fail {
		return "", assert.AnError
	}
	return "https://cdn.example.com/" + strings.TrimPrefix(localPath, "/"), nil
}

func newTestSession(t *testing.T) (*SessionService, *fakeUserRepo) {
	t.Helper()
	repo := newFakeUserRepo()
	tokens := token.NewManager("access-secret", "refresh-secret", time.Hour, 24*time.Hour)
	return NewSessionService(repo, tokens, fakeUploader{}), repo
}

func registerAlice(t *testing.T, svc *SessionService) dom.User {
	t.Helper()
	u, err := svc.Register(context.Background(), RegisterInput{
		Username:   "Alice",
		Email:      "alice@x.com",
		FullName:   "Alice Doe",
		Password:   "secret1secret1",
		AvatarPath: "/tmp/avatar.png",
	})
	require.NoError(t, err)
	return u
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	require.Error(t, err)
	return apperror.From(err).StatusCode
}

func TestRegister_StoresHashedPassword(t *testing.T) {
	svc, repo := newTestSession(t)

	u := registerAlice(t, svc)
	assert.Equal(t, "alice", u.Username, "username is lowercased")
	assert.Empty(t, u.PasswordHash, "hash never leaves the service")

	stored := repo.users[u.ID]
	assert.NotEqual(t, "secret1secret1", stored.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("secret1secret1")))
	assert.Equal(t, "https://cdn.example.com/tmp/avatar.png", stored.AvatarURL)
}

func TestRegister_DuplicateConflict(t *testing.T) {
	svc, _ := newTestSession(t)
	registerAlice(t, svc)

	_, err := svc.Register(context.Background(), RegisterInput{
		Username:   "alice",
		Email:      "other@x.com",
		FullName:   "Other",
		Password:   "secret1secret1",
		AvatarPath: "/tmp/a.png",
	})
	assert.Equal(t, 409, statusOf(t, err))
}

func TestRegister_MissingAvatar(t *testing.T) {
	svc, _ := newTestSession(t)

	_, err := svc.Register(context.Background(), RegisterInput{
		Username: "bob", Email: "bob@x.com", FullName: "Bob", Password: "secret1secret1",
	})
	assert.Equal(t, 400, statusOf(t, err))
}

func TestLogin_PersistsReturnedRefreshToken(t *testing.T) {
	svc, repo := newTestSession(t)
	u := registerAlice(t, svc)

	logged, access, refresh, err := svc.Login(context.Background(), "alice", "", "secret1secret1")
	require.NoError(t, err)
	assert.NotEmpty(t, access)
	assert.Equal(t, u.ID, logged.ID)
	require.NotNil(t, repo.users[u.ID].RefreshToken)
	assert.Equal(t, refresh, *repo.users[u.ID].RefreshToken)
}

func TestLogin_ByEmail(t *testing.T) {
	svc, _ := newTestSession(t)
	registerAlice(t, svc)

	_, _, _, err := svc.Login(context.Background(), "", "alice@x.com", "secret1secret1")
	assert.NoError(t, err)
}

func TestLogin_WrongPassword(t *testing.T) {
	svc, _ := newTestSession(t)
	registerAlice(t, svc)

	_, _, _, err := svc.Login(context.Background(), "alice", "", "wrong")
	assert.Equal(t, 401, statusOf(t, err))
}

func TestLogin_UnknownUser(t *testing.T) {
	svc, _ := newTestSession(t)

	_, _, _, err := svc.Login(context.Background(), "ghost", "", "whatever")
	assert.Equal(t, 404, statusOf(t, err))
}

func TestLogin_OverwritesPriorSession(t *testing.T) {
	svc, _ := newTestSession(t)
	registerAlice(t, svc)

	_, _, firstRefresh, err := svc.Login(context.Background(), "alice", "", "secret1secret1")
	require.NoError(t, err)
	_, _, _, err = svc.Login(context.Background(), "alice", "", "secret1secret1")
	require.NoError(t, err)

	// The first session's refresh token was revoked by the second login.
	_, _, err = svc.Refresh(context.Background(), firstRefresh)
	require.Error(t, err)
	assert.Equal(t, "Refresh Token expired or used", apperror.From(err).Message)
}

func TestRefresh_RotationIsOneShot(t *testing.T) {
	svc, repo := newTestSession(t)
	u := registerAlice(t, svc)

	_, _, refresh1, err := svc.Login(context.Background(), "alice", "", "secret1secret1")
	require.NoError(t, err)

	_, refresh2, err := svc.Refresh(context.Background(), refresh1)
	require.NoError(t, err)
	assert.NotEqual(t, refresh1, refresh2)
	assert.Equal(t, refresh2, *repo.users[u.ID].RefreshToken)

	// Replaying the rotated token must hard-fail.
	_, _, err = svc.Refresh(context.Background(), refresh1)
	require.Error(t, err)
	apiErr := apperror.From(err)
	assert.Equal(t, 401, apiErr.StatusCode)
	assert.Equal(t, "Refresh Token expired or used", apiErr.Message)

	// The fresh token still works.
	_, _, err = svc.Refresh(context.Background(), refresh2)
	assert.NoError(t, err)
}

func TestRefresh_MissingToken(t *testing.T) {
	svc, _ := newTestSession(t)

	_, _, err := svc.Refresh(context.Background(), "")
	apiErr := apperror.From(err)
	assert.Equal(t, 401, apiErr.StatusCode)
	assert.Equal(t, "unauthorized request", apiErr.Message)
}

func TestRefresh_GarbageToken(t *testing.T) {
	svc, _ := newTestSession(t)

	_, _, err := svc.Refresh(context.Background(), "not.a.jwt")
	apiErr := apperror.From(err)
	assert.Equal(t, 401, apiErr.StatusCode)
	assert.Equal(t, "Invalid refresh token", apiErr.Message)
}

func TestLogout_InvalidatesRefreshToken(t *testing.T) {
	svc, repo := newTestSession(t)
	u := registerAlice(t, svc)

	_, _, refresh, err := svc.Login(context.Background(), "alice", "", "secret1secret1")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), u.ID))
	assert.Nil(t, repo.users[u.ID].RefreshToken)

	_, _, err = svc.Refresh(context.Background(), refresh)
	assert.Equal(t, 401, statusOf(t, err))
}

func TestChangePassword(t *testing.T) {
	svc, _ := newTestSession(t)
	u := registerAlice(t, svc)

	err := svc.ChangePassword(context.Background(), u.ID, "wrong-old", "newsecret1234")
	assert.Equal(t, 400, statusOf(t, err))

	require.NoError(t, svc.ChangePassword(context.Background(), u.ID, "secret1secret1", "newsecret1234"))

	_, _, _, err = svc.Login(context.Background(), "alice", "", "secret1secret1")
	assert.Equal(t, 401, statusOf(t, err))
	_, _, _, err = svc.Login(context.Background(), "alice", "", "newsecret1234")
	assert.NoError(t, err)
}

// ChangePassword deliberately leaves the stored refresh token alone.
func TestChangePassword_KeepsRefreshToken(t *testing.T) {
	svc, _ := newTestSession(t)
	u := registerAlice(t, svc)

	_, _, refresh, err := svc.Login(context.Background(), "alice", "", "secret1secret1")
	require.NoError(t, err)

	require.NoError(t, svc.ChangePassword(context.Background(), u.ID, "secret1secret1", "newsecret1234"))

	_, _, err = svc.Refresh(context.Background(), refresh)
	assert.NoError(t, err)
}
