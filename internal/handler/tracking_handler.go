package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gpexpress/backend/internal/model"
	"github.com/gpexpress/backend/internal/service"
	"github.com/labstack/echo/v4"
)

type TrackingHandler struct {
	svc service.TrackingService
}

func NewTrackingHandler(svc service.TrackingService) *TrackingHandler {
	return &TrackingHandler{svc: svc}
}

type RecordStepRequest struct {
	Code string `json:"code"`
}

type SubmitFeedbackRequest struct {
	Comment string `json:"comment"`
	Rating  int    `json:"rating"`
}

func (h *TrackingHandler) ListSteps(c echo.Context) error {
	uid, _ := c.Get("uid").(string)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	requestID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid request id"))
	}
	milestones, err := h.svc.Progress(c.Request().Context(), requestID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return c.JSON(http.StatusNotFound, NewErrorResponse("not_found", "delivery request not found"))
		}
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal_error", "failed to fetch tracking steps"))
	}
	return c.JSON(http.StatusOK, milestones)
}

func (h *TrackingHandler) RecordStep(c echo.Context) error {
	uid, _ := c.Get("uid").(string)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	requestID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid request id"))
	}
	var req RecordStepRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid json"))
	}
	step, err := h.svc.RecordStep(c.Request().Context(), requestID, uid, model.StepCode(req.Code))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			return c.JSON(http.StatusNotFound, NewErrorResponse("not_found", "delivery request not found"))
		case errors.Is(err, service.ErrForbidden):
			return c.JSON(http.StatusForbidden, NewErrorResponse("forbidden", "not the courier of this request"))
		case errors.Is(err, service.ErrValidation):
			return c.JSON(http.StatusBadRequest, NewErrorResponse("validation_failed", err.Error()))
		}
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal_error", "failed to record step"))
	}
	return c.JSON(http.StatusCreated, step)
}

func (h *TrackingHandler) SubmitFeedback(c echo.Context) error {
	uid, _ := c.Get("uid").(string)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	requestID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid request id"))
	}
	var req SubmitFeedbackRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid json"))
	}
	err = h.svc.SubmitFeedback(c.Request().Context(), requestID, uid, req.Comment, req.Rating)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			return c.JSON(http.StatusNotFound, NewErrorResponse("not_found", "delivery request not found"))
		case errors.Is(err, service.ErrForbidden):
			return c.JSON(http.StatusForbidden, NewErrorResponse("forbidden", "not the owner of this request"))
		case errors.Is(err, service.ErrValidation):
			return c.JSON(http.StatusBadRequest, NewErrorResponse("validation_failed", err.Error()))
		case errors.Is(err, service.ErrNotDelivered):
			return c.JSON(http.StatusConflict, NewErrorResponse("not_delivered", "delivery is not completed yet"))
		case errors.Is(err, service.ErrFeedbackSubmitted):
			return c.JSON(http.StatusConflict, NewErrorResponse("feedback_submitted", "feedback was already submitted"))
		}
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal_error", "failed to submit feedback"))
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// TrackPublic serves the unauthenticated tracking lookup; knowing the
// tracking number is the only credential.
func (h *TrackingHandler) TrackPublic(c echo.Context) error {
	number := c.Param("number")
	if number == "" {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "tracking number is required"))
	}
	tracking, err := h.svc.TrackByNumber(c.Request().Context(), number)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return c.JSON(http.StatusNotFound, NewErrorResponse("not_found", "unknown tracking number"))
		}
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal_error", "failed to fetch tracking"))
	}
	return c.JSON(http.StatusOK, tracking)
}
