package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gpexpress/backend/internal/model"
	"github.com/gpexpress/backend/internal/service"
	"github.com/labstack/echo/v4"
)

type ChatHandler struct {
	svc service.ChatService
}

func NewChatHandler(svc service.ChatService) *ChatHandler {
	return &ChatHandler{svc: svc}
}

type ContactRequest struct {
	AnnonceID uint64 `json:"annonceId"`
}

type ChatResponse struct {
	ChatID            uint64           `json:"chatId"`
	ClientAuthID      string           `json:"clientAuthId"`
	GpAuthID          string           `json:"gpAuthId"`
	DeliveryRequestID uint64           `json:"deliveryRequestId"`
	Status            model.ChatStatus `json:"status"`
	Duplicate         bool             `json:"duplicate,omitempty"`
}

func newChatResponse(chat *model.Chat, duplicate bool) ChatResponse {
	return ChatResponse{
		ChatID:            chat.ID,
		ClientAuthID:      chat.ClientAuthID,
		GpAuthID:          chat.GpAuthID,
		DeliveryRequestID: chat.DeliveryRequestID,
		Status:            chat.Status,
		Duplicate:         duplicate,
	}
}

// Contact links the request to the chosen annonce and opens the chat with
// its courier. A pre-existing chat is reported as a 200 with the duplicate
// flag, not as an error.
func (h *ChatHandler) Contact(c echo.Context) error {
	uid, _ := c.Get("uid").(string)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	requestID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid request id"))
	}
	var req ContactRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid json"))
	}
	if req.AnnonceID == 0 {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "annonceId is required"))
	}
	chat, err := h.svc.Contact(c.Request().Context(), uid, req.AnnonceID, requestID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrDuplicateChat):
			if chat != nil {
				return c.JSON(http.StatusOK, newChatResponse(chat, true))
			}
			return c.JSON(http.StatusOK, map[string]interface{}{"duplicate": true})
		case errors.Is(err, service.ErrNotFound):
			return c.JSON(http.StatusNotFound, NewErrorResponse("not_found", "request or annonce not found"))
		case errors.Is(err, service.ErrForbidden):
			return c.JSON(http.StatusForbidden, NewErrorResponse("forbidden", "not the owner of this request"))
		case err.Error() == "cannot contact your own annonce":
			return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", err.Error()))
		}
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal_error", "failed to contact courier"))
	}
	return c.JSON(http.StatusCreated, newChatResponse(chat, false))
}

func (h *ChatHandler) List(c echo.Context) error {
	uid, _ := c.Get("uid").(string)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	chats, err := h.svc.ListByUser(c.Request().Context(), uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal_error", "failed to fetch chats"))
	}
	resp := make([]ChatResponse, 0, len(chats))
	for i := range chats {
		resp = append(resp, newChatResponse(&chats[i], false))
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *ChatHandler) Get(c echo.Context) error {
	uid, _ := c.Get("uid").(string)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	chatID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid chat id"))
	}
	chat, err := h.svc.Get(c.Request().Context(), chatID, uid)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			return c.JSON(http.StatusNotFound, NewErrorResponse("not_found", "chat not found"))
		case errors.Is(err, service.ErrForbidden):
			return c.JSON(http.StatusForbidden, NewErrorResponse("forbidden", "not a participant"))
		}
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal_error", "failed to fetch chat"))
	}
	return c.JSON(http.StatusOK, newChatResponse(chat, false))
}

func (h *ChatHandler) Delete(c echo.Context) error {
	uid, _ := c.Get("uid").(string)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	chatID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid chat id"))
	}
	if err := h.svc.Delete(c.Request().Context(), chatID, uid); err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			return c.JSON(http.StatusNotFound, NewErrorResponse("not_found", "chat not found"))
		case errors.Is(err, service.ErrForbidden):
			return c.JSON(http.StatusForbidden, NewErrorResponse("forbidden", "not a participant"))
		}
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal_error", "failed to delete chat"))
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
