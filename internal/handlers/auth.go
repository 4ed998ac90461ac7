package handlers

import (
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/calculuslmvt/backend101-yt/internal/apperror"
	"github.com/calculuslmvt/backend101-yt/internal/auth"
	"github.com/calculuslmvt/backend101-yt/internal/dto"
	"github.com/calculuslmvt/backend101-yt/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	accessCookieName  = "accessToken"
	refreshCookieName = "refreshToken"
)

// AuthHandler handles registration and the session lifecycle endpoints.
type AuthHandler struct {
	sessions   *service.SessionService
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewAuthHandler returns an AuthHandler. The TTLs size the cookie lifetimes
// to match the tokens they carry.
func NewAuthHandler(sessions *service.SessionService, accessTTL, refreshTTL time.Duration) *AuthHandler {
	return &AuthHandler{sessions: sessions, accessTTL: accessTTL, refreshTTL: refreshTTL}
}

// Register godoc
// @Summary      Register a new account
// @Tags         users
// @Accept       multipart/form-data
// @Produce      json
// @Param        username   formData  string  true   "Username"
// @Param        email      formData  string  true   "Email"
// @Param        fullName   formData  string  true   "Display name"
// @Param        password   formData  string  true   "Password"
// @Param        avatar     formData  file    true   "Avatar image"
// @Param        coverImage formData  file    false  "Cover image"
// @Success      201  {object}  dto.APIResponse
// @Failure      400  {object}  dto.APIErrorResponse
// @Failure      409  {object}  dto.APIErrorResponse
// @Router       /users/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBind(&req); err != nil {
		respondBindErr(c, err)
		return
	}

	avatarPath, cleanupAvatar, err := saveUpload(c, "avatar")
	if err != nil {
		respondErr(c, apperror.NewBadRequest("Avatar file is required"))
		return
	}
	defer cleanupAvatar()

	coverPath, cleanupCover, err := saveUpload(c, "coverImage")
	if err == nil {
		defer cleanupCover()
	} else {
		coverPath = ""
	}

	user, err := h.sessions.Register(c.Request.Context(), service.RegisterInput{
		Username:       req.Username,
		Email:          req.Email,
		FullName:       req.FullName,
		Password:       req.Password,
		AvatarPath:     avatarPath,
		CoverImagePath: coverPath,
	})
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, http.StatusCreated, dto.UserToResponse(user), "User registered successfully")
}

// Login godoc
// @Summary      Login with username or email
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body  dto.LoginRequest  true  "Credentials"
// @Success      200  {object}  dto.APIResponse{data=dto.LoginResponse}
// @Failure      400  {object}  dto.APIErrorResponse
// @Failure      401  {object}  dto.APIErrorResponse
// @Failure      404  {object}  dto.APIErrorResponse
// @Router       /users/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindErr(c, err)
		return
	}

	user, access, refresh, err := h.sessions.Login(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		respondErr(c, err)
		return
	}

	h.setAuthCookies(c, access, refresh)
	respondOK(c, http.StatusOK, dto.LoginResponse{
		User:         dto.UserToResponse(user),
		AccessToken:  access,
		RefreshToken: refresh,
	}, "User logged in successfully")
}

// Logout godoc
// @Summary      Logout the current session
// @Tags         users
// @Produce      json
// @Security     CookieAuth
// @Success      200  {object}  dto.APIResponse
// @Failure      401  {object}  dto.APIErrorResponse
// @Router       /users/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	caller := auth.CurrentUser(c)
	if err := h.sessions.Logout(c.Request.Context(), caller.ID); err != nil {
		respondErr(c, err)
		return
	}
	h.clearAuthCookies(c)
	respondOK(c, http.StatusOK, gin.H{}, "User logged out")
}

// Refresh godoc
// @Summary      Rotate the refresh token and mint a new access token
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RefreshRequest  false  "Refresh token (cookie wins if both present)"
// @Success      200  {object}  dto.APIResponse{data=dto.TokenPairResponse}
// @Failure      401  {object}  dto.APIErrorResponse
// @Router       /users/refresh-token [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	presented, _ := c.Cookie(refreshCookieName)
	if presented == "" {
		var req dto.RefreshRequest
		// Body is optional; an unreadable body is the same as no token.
		_ = c.ShouldBindJSON(&req)
		presented = req.RefreshToken
	}

	access, refresh, err := h.sessions.Refresh(c.Request.Context(), presented)
	if err != nil {
		respondErr(c, err)
		return
	}

	h.setAuthCookies(c, access, refresh)
	respondOK(c, http.StatusOK, dto.TokenPairResponse{
		AccessToken:  access,
		RefreshToken: refresh,
	}, "Access token refreshed")
}

// ChangePassword godoc
// @Summary      Change the caller's password
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     CookieAuth
// @Param        body  body  dto.ChangePasswordRequest  true  "Old and new password"
// @Success      200  {object}  dto.APIResponse
// @Failure      400  {object}  dto.APIErrorResponse
// @Failure      401  {object}  dto.APIErrorResponse
// @Router       /users/change-password [post]
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req dto.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindErr(c, err)
		return
	}
	caller := auth.CurrentUser(c)
	if err := h.sessions.ChangePassword(c.Request.Context(), caller.ID, req.OldPassword, req.NewPassword); err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{}, "Password changed successfully")
}

func (h *AuthHandler) setAuthCookies(c *gin.Context, access, refresh string) {
	c.SetCookie(accessCookieName, access, int(h.accessTTL.Seconds()), "/", "", true, true)
	c.SetCookie(refreshCookieName, refresh, int(h.refreshTTL.Seconds()), "/", "", true, true)
}

func (h *AuthHandler) clearAuthCookies(c *gin.Context) {
	c.SetCookie(accessCookieName, "", -1, "/", "", true, true)
	c.SetCookie(refreshCookieName, "", -1, "/", "", true, true)
}

// saveUpload stores the named multipart file under a temp path and returns
// the path plus a cleanup func.
func saveUpload(c *gin.Context, field string) (string, func(), error) {
	file, err := c.FormFile(field)
	if err != nil {
		return "", nil, err
	}
	path := tempUploadPath(file)
	if err := c.SaveUploadedFile(file, path); err != nil {
		return "", nil, err
	}
	return path, func() { _ = os.Remove(path) }, nil
}

func tempUploadPath(file *multipart.FileHeader) string {
	return filepath.Join(os.TempDir(), uuid.NewString()+filepath.Ext(file.Filename))
}
