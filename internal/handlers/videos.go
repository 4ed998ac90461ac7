package handlers

import (
	"net/http"
	"strconv"

	"github.com/calculuslmvt/backend101-yt/internal/apperror"
	"github.com/calculuslmvt/backend101-yt/internal/auth"
	"github.com/calculuslmvt/backend101-yt/internal/dto"
	"github.com/calculuslmvt/backend101-yt/internal/service"

	"github.com/gin-gonic/gin"
)

// VideoHandler exposes the video reads the account subsystem needs.
type VideoHandler struct {
	svc *service.VideoService
}

func NewVideoHandler(svc *service.VideoService) *VideoHandler {
	return &VideoHandler{svc: svc}
}

// Watch godoc
// @Summary      Fetch a video and record it in the caller's watch history
// @Tags         videos
// @Produce      json
// @Security     CookieAuth
// @Param        id  path  int  true  "Video ID"
// @Success      200  {object}  dto.APIResponse{data=dto.VideoResponse}
// @Failure      404  {object}  dto.APIErrorResponse
// @Router       /videos/{id} [get]
func (h *VideoHandler) Watch(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	caller := auth.CurrentUser(c)
	v, err := h.svc.Watch(c.Request.Context(), caller.ID, id)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, http.StatusOK, dto.VideoToResponse(v), "Video fetched successfully")
}

// ChannelVideos godoc
// @Summary      List a channel's published videos
// @Tags         videos
// @Produce      json
// @Security     CookieAuth
// @Param        channelId  path  int  true  "Channel user ID"
// @Success      200  {object}  dto.APIResponse{data=[]dto.VideoResponse}
// @Router       /videos/channel/{channelId} [get]
func (h *VideoHandler) ChannelVideos(c *gin.Context) {
	id, ok := parseID(c, "channelId")
	if !ok {
		return
	}
	list, err := h.svc.ChannelVideos(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	out := make([]dto.VideoResponse, len(list))
	for i := range list {
		out[i] = dto.VideoToResponse(list[i])
	}
	respondOK(c, http.StatusOK, out, "Channel videos fetched successfully")
}

func parseID(c *gin.Context, name string) (int64, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		respondErr(c, apperror.NewBadRequest("invalid id"))
		return 0, false
	}
	return id, true
}
