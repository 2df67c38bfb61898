package middleware

import (
	"context"
	"net/http"

	"paylink-service/internal/domain"
	"paylink-service/pkg/jwtutil"
)

type contextKey string

const (
	ContextSession contextKey = "session"
	ContextToken   contextKey = "token"
)

// SessionFromContext returns the caller's session, or nil for anonymous
// requests.
func SessionFromContext(ctx context.Context) *domain.Session {
	s, _ := ctx.Value(ContextSession).(*domain.Session)
	return s
}

func GetToken(ctx context.Context) (string, bool) {
	val, ok := ctx.Value(ContextToken).(string)
	return val, ok
}

// WithSession is used by handler tests to skip token handling.
func WithSession(ctx context.Context, s *domain.Session) context.Context {
	return context.WithValue(ctx, ContextSession, s)
}

func setContextValues(r *http.Request, claims *jwtutil.Claims, token string) *http.Request {
	session := &domain.Session{
		Subject:    claims.Subject,
		Email:      claims.Email,
		ExternalID: claims.ExternalID,
		Role:       claims.Role,
	}
	ctx := context.WithValue(r.Context(), ContextSession, session)
	ctx = context.WithValue(ctx, ContextToken, token)
	return r.WithContext(ctx)
}
