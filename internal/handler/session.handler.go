// internal/handler/session.handler.go
package handler

import (
	"net/http"
	"strings"
	"time"

	"paylink-service/internal/domain"
	"paylink-service/pkg/jwtutil"
	"paylink-service/pkg/response"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SessionHandler mints demo session tokens. It is only routed when demo
// login is enabled.
type SessionHandler struct {
	generator *jwtutil.Generator
	logger    *zap.Logger
}

func NewSessionHandler(generator *jwtutil.Generator, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{generator: generator, logger: logger}
}

type createSessionRequest struct {
	Email      string `json:"email"`
	ExternalID string `json:"externalId"`
	Role       string `json:"role"`
}

type createSessionResponse struct {
	Token     string         `json:"token"`
	ExpiresAt time.Time      `json:"expiresAt"`
	Session   domain.Session `json:"session"`
}

// Create handles POST /sessions
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	req.ExternalID = strings.TrimSpace(req.ExternalID)
	if req.Role == "" {
		req.Role = domain.RoleInvestor
	}

	var issues []domain.FieldIssue
	if req.Email == "" && req.ExternalID == "" {
		issues = append(issues, domain.FieldIssue{Field: "email", Message: "Email or external ID is required"})
	}
	if req.Email != "" && !domain.IsValidEmail(req.Email) {
		issues = append(issues, domain.FieldIssue{Field: "email", Message: "Invalid email address"})
	}
	switch req.Role {
	case domain.RoleInvestor, domain.RoleDeveloper, domain.RoleAdmin:
	default:
		issues = append(issues, domain.FieldIssue{
			Field:   "role",
			Message: "Invalid enum value. Expected 'investor' | 'developer' | 'admin'",
		})
	}
	if len(issues) > 0 {
		response.ValidationError(w, "Validation failed", issues)
		return
	}

	subject := uuid.NewString()
	token, jti, err := h.generator.Generate(subject, req.Email, req.ExternalID, req.Role)
	if err != nil {
		h.logger.Error("failed to sign session token", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "Failed to create session")
		return
	}

	h.logger.Info("demo session issued",
		zap.String("subject", subject),
		zap.String("jti", jti),
		zap.String("role", req.Role))

	response.JSON(w, http.StatusCreated, createSessionResponse{
		Token:     token,
		ExpiresAt: time.Now().Add(h.generator.Ttl),
		Session: domain.Session{
			Subject:    subject,
			Email:      req.Email,
			ExternalID: req.ExternalID,
			Role:       req.Role,
		},
	})
}
