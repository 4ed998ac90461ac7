package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/calculuslmvt/backend101-yt/internal/apperror"
	"github.com/calculuslmvt/backend101-yt/internal/auth"
	dom "github.com/calculuslmvt/backend101-yt/internal/domain"
	"github.com/calculuslmvt/backend101-yt/internal/dto"
	"github.com/calculuslmvt/backend101-yt/internal/service"

	"github.com/gin-gonic/gin"
)

// UserHandler handles profile reads/updates and the aggregation views.
type UserHandler struct {
	svc *service.UserService
}

func NewUserHandler(svc *service.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

// Me godoc
// @Summary      Current user profile
// @Tags         users
// @Produce      json
// @Security     CookieAuth
// @Success      200  {object}  dto.APIResponse{data=dto.UserResponse}
// @Failure      401  {object}  dto.APIErrorResponse
// @Router       /users/me [get]
func (h *UserHandler) Me(c *gin.Context) {
	caller := auth.CurrentUser(c)
	respondOK(c, http.StatusOK, dto.UserToResponse(caller), "Current user fetched successfully")
}

// UpdateAccount godoc
// @Summary      Update full name and/or email
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     CookieAuth
// @Param        body  body  dto.UpdateAccountRequest  true  "Fields to update"
// @Success      200  {object}  dto.APIResponse{data=dto.UserResponse}
// @Failure      400  {object}  dto.APIErrorResponse
// @Failure      409  {object}  dto.APIErrorResponse
// @Router       /users/me [patch]
func (h *UserHandler) UpdateAccount(c *gin.Context) {
	var req dto.UpdateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindErr(c, err)
		return
	}
	caller := auth.CurrentUser(c)
	user, err := h.svc.UpdateAccount(c.Request.Context(), caller.ID, req.FullName, req.Email)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, http.StatusOK, dto.UserToResponse(user), "Account details updated successfully")
}

// UpdateAvatar godoc
// @Summary      Replace the caller's avatar
// @Tags         users
// @Accept       multipart/form-data
// @Produce      json
// @Security     CookieAuth
// @Param        avatar  formData  file  true  "Avatar image"
// @Success      200  {object}  dto.APIResponse{data=dto.UserResponse}
// @Failure      400  {object}  dto.APIErrorResponse
// @Router       /users/me/avatar [patch]
func (h *UserHandler) UpdateAvatar(c *gin.Context) {
	h.updateImage(c, "avatar", "Avatar file is required", h.svc.UpdateAvatar, "Avatar updated successfully")
}

// UpdateCoverImage godoc
// @Summary      Replace the caller's cover image
// @Tags         users
// @Accept       multipart/form-data
// @Produce      json
// @Security     CookieAuth
// @Param        coverImage  formData  file  true  "Cover image"
// @Success      200  {object}  dto.APIResponse{data=dto.UserResponse}
// @Failure      400  {object}  dto.APIErrorResponse
// @Router       /users/me/cover-image [patch]
func (h *UserHandler) UpdateCoverImage(c *gin.Context) {
	h.updateImage(c, "coverImage", "Cover image file is required", h.svc.UpdateCoverImage, "Cover image updated successfully")
}

func (h *UserHandler) updateImage(c *gin.Context, field, missingMsg string,
	update func(ctx context.Context, userID int64, localPath string) (dom.User, error), okMsg string) {

	path, cleanup, err := saveUpload(c, field)
	if err != nil {
		respondErr(c, apperror.NewBadRequest(missingMsg))
		return
	}
	defer cleanup()

	caller := auth.CurrentUser(c)
	user, err := update(c.Request.Context(), caller.ID, path)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, http.StatusOK, dto.UserToResponse(user), okMsg)
}

// Channel godoc
// @Summary      Channel profile with subscriber counts
// @Tags         users
// @Produce      json
// @Security     CookieAuth
// @Param        username  path  string  true  "Channel username"
// @Success      200  {object}  dto.APIResponse{data=dto.ChannelProfileResponse}
// @Failure      404  {object}  dto.APIErrorResponse
// @Router       /users/channel/{username} [get]
func (h *UserHandler) Channel(c *gin.Context) {
	caller := auth.CurrentUser(c)
	profile, err := h.svc.ChannelProfile(c.Request.Context(), c.Param("username"), caller.ID)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, http.StatusOK, dto.ChannelToResponse(profile), "Channel profile fetched successfully")
}

// WatchHistory godoc
// @Summary      Watch history, most recent first
// @Tags         users
// @Produce      json
// @Security     CookieAuth
// @Success      200  {object}  dto.APIResponse{data=dto.WatchHistoryResponse}
// @Router       /users/watch-history [get]
func (h *UserHandler) WatchHistory(c *gin.Context) {
	caller := auth.CurrentUser(c)
	list, err := h.svc.WatchHistory(c.Request.Context(), caller.ID)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, http.StatusOK, dto.WatchHistoryResponse{Items: dto.WatchedToResponses(list)},
		"Watch history fetched successfully")
}

// ToggleSubscription godoc
// @Summary      Subscribe to or unsubscribe from a channel
// @Tags         subscriptions
// @Produce      json
// @Security     CookieAuth
// @Param        channelId  path  int  true  "Channel user ID"
// @Success      200  {object}  dto.APIResponse
// @Failure      400  {object}  dto.APIErrorResponse
// @Failure      404  {object}  dto.APIErrorResponse
// @Router       /subscriptions/{channelId}/toggle [post]
func (h *UserHandler) ToggleSubscription(c *gin.Context) {
	channelID, err := strconv.ParseInt(c.Param("channelId"), 10, 64)
	if err != nil || channelID <= 0 {
		respondErr(c, apperror.NewBadRequest("invalid channel id"))
		return
	}
	caller := auth.CurrentUser(c)
	subscribed, err := h.svc.ToggleSubscription(c.Request.Context(), caller.ID, channelID)
	if err != nil {
		respondErr(c, err)
		return
	}
	msg := "Unsubscribed successfully"
	if subscribed {
		msg = "Subscribed successfully"
	}
	respondOK(c, http.StatusOK, gin.H{"subscribed": subscribed}, msg)
}
