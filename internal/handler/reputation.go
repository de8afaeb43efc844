package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/JFcoldharbor/StitchSocialIOS-sub007/internal/middleware"
	"github.com/JFcoldharbor/StitchSocialIOS-sub007/internal/model"
	"github.com/JFcoldharbor/StitchSocialIOS-sub007/internal/service"
)

type ReputationHandler struct {
	worker *service.ReputationWorker
}

func NewReputationHandler(worker *service.ReputationWorker) *ReputationHandler {
	return &ReputationHandler{worker: worker}
}

// Get handles GET /api/reputation/:userId
func (h *ReputationHandler) Get(c fiber.Ctx) error {
	userID, errMsg := middleware.ValidateUserID(c.Params("userId"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	snap, err := h.worker.LatestSnapshot(c.Context(), userID)
	if err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load reputation")
	}

	return c.JSON(snap)
}

// ApplyEvent handles POST /api/reputation/events — social events reported
// by the follower and moderation systems that carry an immediate penalty.
func (h *ReputationHandler) ApplyEvent(c fiber.Ctx) error {
	var req model.ReputationEventRequest
	if err := c.Bind().JSON(&req); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Invalid request body")
	}

	userID, errMsg := middleware.ValidateUserID(req.UserID)
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}
	req.UserID = userID

	switch model.ReputationEventType(req.Event) {
	case model.EventUnfollow, model.EventBlock, model.EventModerationRemoval, model.EventSelfDeletion:
	default:
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_EVENT",
			"Event must be one of: unfollow, block, moderation_removal, self_deletion")
	}

	snap, err := h.worker.ApplyEvent(c.Context(), &req)
	if err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to apply reputation event")
	}

	return c.JSON(snap)
}
