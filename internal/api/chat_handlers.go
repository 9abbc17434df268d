package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/civilmastersolution/cms-backend/internal/logging"
	"github.com/civilmastersolution/cms-backend/internal/service/chat"
)

const (
	sessionCookieName   = "chat_session"
	sessionCookieMaxAge = 24 * 60 * 60 // seconds
)

// ChatRequest is the inbound chat payload. Honeypot is hidden in the form:
// humans never see it, bots fill it. Website is an older alias for the same
// trap still used by deployed frontends.
type ChatRequest struct {
	Question string `json:"question" form:"question"`
	Honeypot string `json:"honeypot" form:"honeypot"`
	Website  string `json:"website" form:"website"`
}

// honeypotValue returns whichever trap field the client filled.
func (r ChatRequest) honeypotValue() string {
	if r.Honeypot != "" {
		return r.Honeypot
	}
	return r.Website
}

func (s *Server) handleChat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBind(&req); err != nil {
		s.badRequest(c, err)
		return
	}

	sessionID := s.sessionIDFromCookie(c)

	ctx := logging.WithSessionID(c.Request.Context(), sessionID)
	ctx = logging.WithClientIP(ctx, c.ClientIP())
	ctx = logging.WithRequestID(ctx, c.GetString("request_id"))

	resp, err := s.chat.Ask(ctx, chat.Request{
		SessionID: sessionID,
		ClientIP:  c.ClientIP(),
		Question:  req.Question,
		Honeypot:  req.honeypotValue(),
	})
	if err != nil {
		s.chatError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleChatMethodNotAllowed(c *gin.Context) {
	c.JSON(http.StatusMethodNotAllowed, ErrorResponse{
		Error:     "method not allowed, use POST",
		RequestID: c.GetString("request_id"),
	})
}

// sessionIDFromCookie returns the visitor's conversation ID, minting a new
// one when the cookie is absent or not a UUID.
func (s *Server) sessionIDFromCookie(c *gin.Context) string {
	if id, err := c.Cookie(sessionCookieName); err == nil {
		if _, parseErr := uuid.Parse(id); parseErr == nil {
			return id
		}
	}

	id := uuid.New().String()
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookieName, id, sessionCookieMaxAge, "/", "", false, true)
	return id
}

func (s *Server) chatError(c *gin.Context, err error) {
	requestID := c.GetString("request_id")

	if ve, ok := chat.AsValidationError(err); ok {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: ve.Reason, RequestID: requestID})
		return
	}

	switch {
	case errors.Is(err, chat.ErrIPRateLimited):
		c.JSON(http.StatusTooManyRequests, ErrorResponse{
			Error:     "Too many requests from your network. Please try again in a minute.",
			RequestID: requestID,
		})
	case errors.Is(err, chat.ErrSessionRateLimited):
		c.JSON(http.StatusTooManyRequests, ErrorResponse{
			Error:     "You are sending messages too quickly. Please slow down.",
			RequestID: requestID,
		})
	case errors.Is(err, chat.ErrSessionMessageCap):
		c.JSON(http.StatusTooManyRequests, ErrorResponse{
			Error:     "This conversation has reached its limit. Please start a new session later.",
			RequestID: requestID,
		})
	default:
		s.logger.Error("chat request failed", "error", err.Error(), "request_id", requestID)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:     "internal server error",
			RequestID: requestID,
		})
	}
}
