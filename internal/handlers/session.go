package handlers

import (
	"net/http"

	"houseofstone-client/internal/services"
	"houseofstone-client/internal/validators"
	"houseofstone-client/pkg/api"
	"houseofstone-client/pkg/logger"

	"github.com/gin-gonic/gin"
)

type SessionHandler struct {
	client    *api.Client
	saves     *services.SavedPropertiesService
	validator validators.CredentialsValidator
}

func NewSessionHandler(client *api.Client, saves *services.SavedPropertiesService) *SessionHandler {
	return &SessionHandler{
		client:    client,
		saves:     saves,
		validator: validators.NewCredentialsValidator(),
	}
}

type LoginRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password" binding:"required"`
}

// Login starts a session, then moves any local saves into the account.
// A failed merge does not fail the login.
func (h *SessionHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(badRequest(err))
		return
	}
	if err := h.validator.ValidateLogin(req.Email, req.Username, req.Password); err != nil {
		_ = c.Error(badRequest(err))
		return
	}

	s, err := h.client.Login(c.Request.Context(), api.Credentials{Email: req.Email, Username: req.Username, Password: req.Password})
	if err != nil {
		_ = c.Error(err)
		return
	}

	body := gin.H{"authenticated": true, "user": s.User}
	if h.saves != nil && h.saves.SavedCount() > 0 {
		result, err := h.saves.MergeToAccount(c.Request.Context(), h.client.Favorites())
		if err != nil {
			logger.Default().Warnf("Local saves not fully merged after login: error=%v", err)
		}
		body["merged"] = ids(result.Synced)
	}
	c.JSON(http.StatusOK, body)
}

func (h *SessionHandler) Logout(c *gin.Context) {
	if err := h.client.Logout(c.Request.Context()); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Status reports the persisted session without contacting the server.
func (h *SessionHandler) Status(c *gin.Context) {
	s, err := h.client.Sessions().Load(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"authenticated": false})
		return
	}
	body := gin.H{"authenticated": true, "user": s.User}
	if exp, err := s.AccessExpiry(); err == nil {
		body["accessExpiresAt"] = exp.UTC()
	}
	c.JSON(http.StatusOK, body)
}
