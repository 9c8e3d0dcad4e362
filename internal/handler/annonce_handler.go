package handler

import (
	"errors"
	"net/http"

	"github.com/gpexpress/backend/internal/model"
	"github.com/gpexpress/backend/internal/service"
	"github.com/labstack/echo/v4"
)

type AnnonceHandler struct {
	svc service.MatchingService
}

func NewAnnonceHandler(svc service.MatchingService) *AnnonceHandler {
	return &AnnonceHandler{svc: svc}
}

type AnnonceResponse struct {
	ID              uint64 `json:"id"`
	UserID          string `json:"userId"`
	FullName        string `json:"fullName"`
	OriginCity      string `json:"originCity"`
	DestinationCity string `json:"destinationCity"`
	DepartureDate   string `json:"departureDate"`
}

func newAnnonceResponse(a *model.Annonce) AnnonceResponse {
	return AnnonceResponse{
		ID:              a.ID,
		UserID:          a.UserID,
		FullName:        a.FullName,
		OriginCity:      a.OriginCity,
		DestinationCity: a.DestinationCity,
		DepartureDate:   a.DepartureDate,
	}
}

// Search is the matching query: substring match on both cities, exact match
// on the date. An empty list is a normal outcome.
func (h *AnnonceHandler) Search(c echo.Context) error {
	uid, _ := c.Get("uid").(string)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	origin := c.QueryParam("from")
	destination := c.QueryParam("to")
	date := c.QueryParam("date")
	matches, err := h.svc.FindMatches(c.Request().Context(), origin, destination, date)
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			return c.JSON(http.StatusBadRequest, NewErrorResponse("validation_failed", err.Error()))
		}
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal_error", "failed to search annonces"))
	}
	resp := make([]AnnonceResponse, 0, len(matches))
	for i := range matches {
		resp = append(resp, newAnnonceResponse(&matches[i]))
	}
	return c.JSON(http.StatusOK, resp)
}
