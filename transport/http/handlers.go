package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/layer-3/walletauth/service"
	"github.com/sirupsen/logrus"
)

// AuthHandlers contains HTTP handlers for auth endpoints
type AuthHandlers struct {
	authService *service.AuthService
	log         logrus.FieldLogger
}

// NewAuthHandlers creates new auth handlers
func NewAuthHandlers(authService *service.AuthService, log logrus.FieldLogger) *AuthHandlers {
	return &AuthHandlers{
		authService: authService,
		log:         log,
	}
}

type challengeRequest struct {
	WalletAddress string `json:"wallet_address"`
}

type challengeResponse struct {
	Nonce     string    `json:"nonce"`
	Message   string    `json:"message"`
	ExpiresAt time.Time `json:"expires_at"`
}

type verifyRequest struct {
	WalletAddress string `json:"wallet_address"`
	Signature     string `json:"signature"`
	Nonce         string `json:"nonce"`
}

type sessionGrantResponse struct {
	ID        string    `json:"id"`
	Token     string    `json:"token"`
	TokenType string    `json:"token_type"`
	Role      string    `json:"role"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
	ExpiresIn int64     `json:"expires_in"`
}

type verifyResponse struct {
	IdentityID   string               `json:"identity_id"`
	NewIdentity  bool                 `json:"new_identity"`
	SessionGrant sessionGrantResponse `json:"session_grant"`
}

type meResponse struct {
	IdentityID    string    `json:"identity_id"`
	WalletAddress string    `json:"wallet_address"`
	Role          string    `json:"role"`
	CreatedAt     time.Time `json:"created_at"`
	SessionID     string    `json:"session_id"`
	ExpiresAt     time.Time `json:"expires_at"`
}

// Challenge handles the challenge request
func (h *AuthHandlers) Challenge(c *gin.Context) {
	var req challengeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": CodeInvalidRequest})
		return
	}

	challenge, err := h.authService.CreateChallenge(c.Request.Context(), req.WalletAddress)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, challengeResponse{
		Nonce:     challenge.Nonce,
		Message:   challenge.Message,
		ExpiresAt: challenge.ExpiresAt,
	})
}

// Verify checks a signed challenge and returns a session grant
func (h *AuthHandlers) Verify(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": CodeInvalidRequest})
		return
	}

	result, err := h.authService.Login(c.Request.Context(), req.WalletAddress, req.Signature, req.Nonce)
	if err != nil {
		h.writeError(c, err)
		return
	}

	grant := result.Grant
	c.JSON(http.StatusOK, verifyResponse{
		IdentityID:  result.Identity.ID,
		NewIdentity: result.NewIdentity,
		SessionGrant: sessionGrantResponse{
			ID:        grant.ID,
			Token:     grant.Token,
			TokenType: "Bearer",
			Role:      string(grant.Role),
			IssuedAt:  grant.IssuedAt,
			ExpiresAt: grant.ExpiresAt,
			ExpiresIn: int64(grant.ExpiresAt.Sub(grant.IssuedAt) / time.Second),
		},
	})
}

// Me returns information about the authenticated identity
func (h *AuthHandlers) Me(c *gin.Context) {
	session, ok := sessionFromContext(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": CodeInternal})
		return
	}

	c.JSON(http.StatusOK, meResponse{
		IdentityID:    session.identity.ID,
		WalletAddress: session.identity.WalletAddress,
		Role:          string(session.identity.Role),
		CreatedAt:     session.identity.CreatedAt,
		SessionID:     session.grant.ID,
		ExpiresAt:     session.grant.ExpiresAt,
	})
}

// Health reports liveness
func (h *AuthHandlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
