package handler

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/jackc/pgx/v5"

	"github.com/JFcoldharbor/StitchSocialIOS-sub007/internal/middleware"
	"github.com/JFcoldharbor/StitchSocialIOS-sub007/internal/model"
	"github.com/JFcoldharbor/StitchSocialIOS-sub007/internal/service"
	"github.com/JFcoldharbor/StitchSocialIOS-sub007/pkg/hash"
)

type EngagementHandler struct {
	svc    *service.EngagementService
	ipSalt string
}

func NewEngagementHandler(svc *service.EngagementService, ipSalt string) *EngagementHandler {
	return &EngagementHandler{svc: svc, ipSalt: ipSalt}
}

// Submit handles POST /api/engagements
func (h *EngagementHandler) Submit(c fiber.Ctx) error {
	var req model.EngagementRequest
	if err := c.Bind().JSON(&req); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Invalid request body")
	}

	videoID, errMsg := middleware.ValidateVideoID(req.VideoID)
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	userID, errMsg := middleware.ValidateUserID(req.UserID)
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	creatorID, errMsg := middleware.ValidateUserID(req.CreatorID)
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", "creatorId: "+errMsg)
	}

	direction, errMsg := middleware.ValidateDirection(req.Direction)
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}
	side, _ := model.ParseSide(direction)

	tier, err := model.ParseTier(req.Tier)
	if err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_TIER",
			"Invalid tier. Must be one of: rookie, riser, creator, influencer, icon, cofounder, founder")
	}

	out, err := h.svc.Submit(c.Context(), service.SubmitInput{
		VideoID:   videoID,
		UserID:    userID,
		CreatorID: creatorID,
		Tier:      tier,
		Side:      side,
		IsBurst:   req.IsBurst,
	})
	if err != nil {
		return h.mapError(c, err, userID)
	}

	recordEngagementMetrics(direction, req.IsBurst)
	return c.JSON(out)
}

// Remove handles DELETE /api/engagements
func (h *EngagementHandler) Remove(c fiber.Ctx) error {
	var req model.EngagementRemoveRequest
	if err := c.Bind().JSON(&req); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Invalid request body")
	}

	videoID, errMsg := middleware.ValidateVideoID(req.VideoID)
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	userID, errMsg := middleware.ValidateUserID(req.UserID)
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	out, err := h.svc.RemoveAll(c.Context(), videoID, userID)
	if err != nil {
		return h.mapError(c, err, userID)
	}

	return c.JSON(out)
}

// GetLedger handles GET /api/engagements/:videoId/:userId
func (h *EngagementHandler) GetLedger(c fiber.Ctx) error {
	videoID, errMsg := middleware.ValidateVideoID(c.Params("videoId"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}
	userID, errMsg := middleware.ValidateUserID(c.Params("userId"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	ledger, err := h.svc.Ledger(c.Context(), videoID, userID)
	if err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load ledger")
	}

	return c.JSON(model.LedgerResponse{
		VideoID:           ledger.VideoID,
		UserID:            ledger.UserID,
		Side:              string(ledger.Side()),
		TotalEngagements:  ledger.TotalEngagements,
		HypeEngagements:   ledger.HypeEngagements,
		CoolEngagements:   ledger.CoolEngagements,
		TotalCloutGiven:   ledger.TotalCloutGiven,
		FirstEngagementAt: ledger.FirstEngagementAt,
		WithinGracePeriod: ledger.IsWithinGracePeriod(time.Now(), h.svc.GracePeriod()),
	})
}

// mapError translates orchestrator errors into API responses. Rejections
// carry their enumerated code; everything else is internal.
func (h *EngagementHandler) mapError(c fiber.Ctx, err error, userID string) error {
	if rej, ok := model.AsRejection(err); ok {
		status := fiber.StatusConflict
		switch rej.Reason {
		case model.RejectCooldownActive, model.RejectTempBlocked:
			status = fiber.StatusTooManyRequests
		case model.RejectNothingToRemove:
			status = fiber.StatusNotFound
		case model.RejectSelfEngagement, model.RejectInsufficientHype:
			status = fiber.StatusForbidden
		}
		recordRejectionMetrics(string(rej.Reason))
		middleware.Logger.Debug().
			Str("reason", string(rej.Reason)).
			Str("ip_hash", hash.HashIP(c.IP(), h.ipSalt)[:12]).
			Msg("engagement rejected")
		return middleware.ErrorResponse(c, status, string(rej.Reason), rej.Message)
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return middleware.ErrorResponse(c, fiber.StatusNotFound, "NOT_FOUND", "Video not found")
	}
	return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to process engagement")
}
