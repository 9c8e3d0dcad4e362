package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gpexpress/backend/internal/realtime"
	"github.com/gpexpress/backend/internal/service"
	"github.com/labstack/echo/v4"
)

type MessageHandler struct {
	svc    service.MessageService
	broker *realtime.Broker
}

func NewMessageHandler(svc service.MessageService, broker *realtime.Broker) *MessageHandler {
	return &MessageHandler{svc: svc, broker: broker}
}

type SendMessageRequest struct {
	Content   string `json:"content"`
	ClientKey string `json:"clientKey"`
}

func (h *MessageHandler) List(c echo.Context) error {
	uid, _ := c.Get("uid").(string)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	chatID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid chat id"))
	}
	msgs, err := h.svc.History(c.Request().Context(), chatID, uid)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			return c.JSON(http.StatusNotFound, NewErrorResponse("not_found", "chat not found"))
		case errors.Is(err, service.ErrForbidden):
			return c.JSON(http.StatusForbidden, NewErrorResponse("forbidden", "not a participant"))
		}
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal_error", "failed to fetch messages"))
	}
	return c.JSON(http.StatusOK, msgs)
}

func (h *MessageHandler) Create(c echo.Context) error {
	uid, _ := c.Get("uid").(string)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	chatID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid chat id"))
	}
	var req SendMessageRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid json"))
	}
	msg, err := h.svc.Send(c.Request().Context(), chatID, uid, req.Content, req.ClientKey)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			return c.JSON(http.StatusNotFound, NewErrorResponse("not_found", "chat not found"))
		case errors.Is(err, service.ErrForbidden):
			return c.JSON(http.StatusForbidden, NewErrorResponse("forbidden", "not a participant"))
		case errors.Is(err, service.ErrRequestNotAccepted):
			return c.JSON(http.StatusConflict, NewErrorResponse("not_accepted", "request is not accepted yet"))
		case err.Error() == "content is required":
			return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", err.Error()))
		}
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal_error", "failed to send message"))
	}
	return c.JSON(http.StatusCreated, msg)
}

// Stream is the realtime intake: an SSE feed of messages inserted into the
// chat. The subscription lives exactly as long as the request context; any
// event arriving after the client went away is dropped with it.
func (h *MessageHandler) Stream(c echo.Context) error {
	uid, _ := c.Get("uid").(string)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	chatID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid chat id"))
	}
	if err := h.svc.Authorize(c.Request().Context(), chatID, uid); err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			return c.JSON(http.StatusNotFound, NewErrorResponse("not_found", "chat not found"))
		case errors.Is(err, service.ErrForbidden):
			return c.JSON(http.StatusForbidden, NewErrorResponse("forbidden", "not a participant"))
		}
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal_error", "failed to open stream"))
	}
	if h.broker == nil {
		return c.JSON(http.StatusServiceUnavailable, NewErrorResponse("unavailable", "realtime is not configured"))
	}

	ctx := c.Request().Context()
	sub := h.broker.Subscribe(ctx, chatID)
	defer sub.Close()

	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	w.Flush()

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-sub.Events():
			if !ok {
				return nil
			}
			payload, err := json.Marshal(msg)
			if err != nil {
				continue
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
				return nil
			}
			w.Flush()
		}
	}
}
