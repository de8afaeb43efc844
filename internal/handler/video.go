package handler

import (
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/JFcoldharbor/StitchSocialIOS-sub007/internal/middleware"
	"github.com/JFcoldharbor/StitchSocialIOS-sub007/internal/model"
	"github.com/JFcoldharbor/StitchSocialIOS-sub007/internal/repository"
	"github.com/JFcoldharbor/StitchSocialIOS-sub007/internal/service"
)

type VideoHandler struct {
	repo       *repository.VideoRepo
	cache      *service.CacheService
	reputation *service.ReputationWorker
}

func NewVideoHandler(repo *repository.VideoRepo, cache *service.CacheService, reputation *service.ReputationWorker) *VideoHandler {
	return &VideoHandler{repo: repo, cache: cache, reputation: reputation}
}

// Get handles GET /api/videos/:videoId
func (h *VideoHandler) Get(c fiber.Ctx) error {
	videoID, errMsg := middleware.ValidateVideoID(c.Params("videoId"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	if data, err := h.cache.GetVideo(c.Context(), videoID); err == nil && data != nil {
		if Metrics.CacheHits != nil {
			Metrics.CacheHits.Inc()
		}
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.Send(data)
	}
	if Metrics.CacheMisses != nil {
		Metrics.CacheMisses.Inc()
	}

	video, err := h.repo.Get(c.Context(), videoID)
	if err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to lookup video")
	}
	if video == nil {
		return middleware.ErrorResponse(c, fiber.StatusNotFound, "NOT_FOUND", "Video not found")
	}

	resp := model.VideoResponse{
		VideoID:     video.VideoID,
		CreatorID:   video.CreatorID,
		HypeCount:   video.HypeCount,
		CoolCount:   video.CoolCount,
		TotalClout:  video.TotalClout,
		LastUpdated: video.LastUpdated,
	}
	_ = h.cache.SetVideo(c.Context(), videoID, resp)

	return c.JSON(resp)
}

// Register handles POST /api/videos — announces a new video so that
// engagements against it have counter rows to land on.
func (h *VideoHandler) Register(c fiber.Ctx) error {
	var req struct {
		VideoID   string `json:"videoId"`
		CreatorID string `json:"creatorId"`
	}
	if err := c.Bind().JSON(&req); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Invalid request body")
	}

	videoID, errMsg := middleware.ValidateVideoID(req.VideoID)
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}
	creatorID, errMsg := middleware.ValidateUserID(req.CreatorID)
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", "creatorId: "+errMsg)
	}

	if err := h.repo.Create(c.Context(), videoID, creatorID); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to register video")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"videoId":   videoID,
		"creatorId": creatorID,
		"createdAt": time.Now().UTC(),
	})
}

// Delete handles DELETE /api/videos/:videoId — a creator removing their
// own video. Engagement the video had gathered feeds the creator's
// integrity record.
func (h *VideoHandler) Delete(c fiber.Ctx) error {
	videoID, errMsg := middleware.ValidateVideoID(c.Params("videoId"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	video, err := h.repo.Get(c.Context(), videoID)
	if err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to lookup video")
	}
	if video == nil {
		return middleware.ErrorResponse(c, fiber.StatusNotFound, "NOT_FOUND", "Video not found")
	}

	engagement, err := h.repo.MarkDeleted(c.Context(), videoID)
	if err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to delete video")
	}
	_ = h.cache.InvalidateVideo(c.Context(), videoID)

	if _, err := h.reputation.ApplyEvent(c.Context(), &model.ReputationEventRequest{
		UserID:            video.CreatorID,
		Event:             string(model.EventSelfDeletion),
		DeletedEngagement: engagement,
	}); err != nil {
		middleware.Logger.Warn().Err(err).Str("user_id", video.CreatorID).
			Msg("failed to record self-deletion event")
	}

	return c.JSON(fiber.Map{
		"videoId":           videoID,
		"deleted":           true,
		"deletedEngagement": engagement,
	})
}
