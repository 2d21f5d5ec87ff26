package api

import (
	"context"
	"strings"

	"github.com/danielgtaylor/huma/v2"
)

// authenticateRequest validates the Authorization header and returns the user ID.
func (s *Server) authenticateRequest(_ context.Context, authHeader string) (string, error) {
	if authHeader == "" {
		return "", huma.Error401Unauthorized("Missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", huma.Error401Unauthorized("Invalid authorization header format")
	}

	claims, err := s.services.Auth.VerifyAccessToken(parts[1])
	if err != nil {
		return "", huma.Error401Unauthorized("Invalid or expired token")
	}

	return claims.UserID, nil
}

// extractIP pulls the originating client IP from proxy headers.
func extractIP(xForwardedFor, xRealIP string) string {
	if xForwardedFor != "" {
		if ip, _, found := strings.Cut(xForwardedFor, ","); found {
			return strings.TrimSpace(ip)
		}
		return xForwardedFor
	}
	return xRealIP
}
