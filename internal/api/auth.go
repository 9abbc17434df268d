package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/civilmastersolution/cms-backend/internal/storage"
)

// adminAuthMiddleware guards back-office routes with HTTP basic auth checked
// against the admins table. A bcrypt comparison runs even for unknown
// usernames so the response time does not reveal which usernames exist.
func (s *Server) adminAuthMiddleware() gin.HandlerFunc {
	// Hash of an empty password, compared against when the username is unknown.
	dummyHash, _ := bcrypt.GenerateFromPassword([]byte("-"), bcrypt.DefaultCost)

	return func(c *gin.Context) {
		username, password, ok := c.Request.BasicAuth()
		if !ok {
			s.unauthorized(c)
			return
		}

		admin, err := s.stores.Admins.GetByUsername(c.Request.Context(), username)
		if err != nil {
			if !errors.Is(err, storage.ErrNotFound) {
				s.logger.Error("admin lookup failed", slog.String("error", err.Error()))
			}
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			s.unauthorized(c)
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)); err != nil {
			s.logger.Warn("admin auth rejected",
				slog.String("username", username),
				slog.String("client_ip", c.ClientIP()))
			s.unauthorized(c)
			return
		}

		c.Set("admin_username", admin.Username)
		c.Next()
	}
}

func (s *Server) unauthorized(c *gin.Context) {
	c.Header("WWW-Authenticate", `Basic realm="cms-admin"`)
	c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
		Error:     "authentication required",
		RequestID: c.GetString("request_id"),
	})
}
