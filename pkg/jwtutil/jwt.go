// pkg/jwtutil/jwt.go
package jwtutil

import (
	"github.com/golang-jwt/jwt/v5"
)

// Claims identify a checkout session. Email and ExternalID are compared
// against the payment link's buyer.
type Claims struct {
	Email      string `json:"email,omitempty"`
	ExternalID string `json:"ext,omitempty"`
	Role       string `json:"role,omitempty"`
	jwt.RegisteredClaims
}
