package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gpexpress/backend/internal/model"
	"github.com/gpexpress/backend/internal/service"
	"github.com/labstack/echo/v4"
)

type RequestHandler struct {
	svc service.RequestService
}

func NewRequestHandler(svc service.RequestService) *RequestHandler {
	return &RequestHandler{svc: svc}
}

type CreateRequestRequest struct {
	PackageName     string `json:"packageName"`
	RequesterName   string `json:"requesterName"`
	DepartureDate   string `json:"departureDate"`
	OriginCity      string `json:"originCity"`
	DestinationCity string `json:"destinationCity"`
	DeliveryAddress string `json:"deliveryAddress"`
}

type RequestResponse struct {
	ID              uint64              `json:"id"`
	TrackingNumber  string              `json:"trackingNumber"`
	Status          model.RequestStatus `json:"status"`
	AnnonceID       *uint64             `json:"annonceId"`
	PackageName     string              `json:"packageName"`
	RequesterName   string              `json:"requesterName"`
	DepartureDate   string              `json:"departureDate"`
	OriginCity      string              `json:"originCity"`
	DestinationCity string              `json:"destinationCity"`
	DeliveryAddress string              `json:"deliveryAddress"`
	CreatedAt       string              `json:"createdAt"`
}

func newRequestResponse(req *model.DeliveryRequest) RequestResponse {
	return RequestResponse{
		ID:              req.ID,
		TrackingNumber:  req.TrackingNumber,
		Status:          req.Status,
		AnnonceID:       req.AnnonceID,
		PackageName:     req.PackageName,
		RequesterName:   req.RequesterName,
		DepartureDate:   req.DepartureDate,
		OriginCity:      req.OriginCity,
		DestinationCity: req.DestinationCity,
		DeliveryAddress: req.DeliveryAddress,
		CreatedAt:       req.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

func (h *RequestHandler) Create(c echo.Context) error {
	uid, _ := c.Get("uid").(string)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	var req CreateRequestRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid json"))
	}
	created, err := h.svc.Create(c.Request().Context(), uid, service.CreateRequestInput{
		PackageName:     req.PackageName,
		RequesterName:   req.RequesterName,
		DepartureDate:   req.DepartureDate,
		OriginCity:      req.OriginCity,
		DestinationCity: req.DestinationCity,
		DeliveryAddress: req.DeliveryAddress,
	})
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			return c.JSON(http.StatusBadRequest, NewErrorResponse("validation_failed", err.Error()))
		}
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal_error", "failed to create delivery request"))
	}
	return c.JSON(http.StatusCreated, newRequestResponse(created))
}

func (h *RequestHandler) Get(c echo.Context) error {
	uid, _ := c.Get("uid").(string)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid request id"))
	}
	req, err := h.svc.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return c.JSON(http.StatusNotFound, NewErrorResponse("not_found", "delivery request not found"))
		}
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal_error", "failed to fetch delivery request"))
	}
	return c.JSON(http.StatusOK, newRequestResponse(req))
}

func (h *RequestHandler) ListMine(c echo.Context) error {
	uid, _ := c.Get("uid").(string)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	list, err := h.svc.ListByClient(c.Request().Context(), uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal_error", "failed to fetch delivery requests"))
	}
	resp := make([]RequestResponse, 0, len(list))
	for i := range list {
		resp = append(resp, newRequestResponse(&list[i]))
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *RequestHandler) Accept(c echo.Context) error {
	return h.decide(c, h.svc.Accept)
}

func (h *RequestHandler) Refuse(c echo.Context) error {
	return h.decide(c, h.svc.Refuse)
}

func (h *RequestHandler) decide(c echo.Context, op func(ctx context.Context, requestID uint64, gpUID string) (*model.DeliveryRequest, error)) error {
	uid, _ := c.Get("uid").(string)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid request id"))
	}
	req, err := op(c.Request().Context(), id, uid)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			return c.JSON(http.StatusNotFound, NewErrorResponse("not_found", "delivery request not found"))
		case errors.Is(err, service.ErrForbidden):
			return c.JSON(http.StatusForbidden, NewErrorResponse("forbidden", "not the courier of this request"))
		case errors.Is(err, service.ErrValidation):
			return c.JSON(http.StatusBadRequest, NewErrorResponse("validation_failed", err.Error()))
		}
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal_error", "failed to update delivery request"))
	}
	return c.JSON(http.StatusOK, newRequestResponse(req))
}
