// Package identity resolves the current user for the chat panel.
//
// The identity is an explicit read-only value handed to the panel at
// construction. It comes from configuration when user_id is set, otherwise
// from the subject of the bearer token the backend issued.
package identity

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v4"
)

// ErrMissing is returned when neither a user id nor a usable token is configured.
var ErrMissing = errors.New("no current user: set user_id in .tchat or TCHAT_USER_ID, or configure a token with a sub claim")

// Identity is the current user as seen by the panel.
type Identity struct {
	UserID string `json:"user_id"`
	Name   string `json:"name,omitempty"`
	Source string `json:"source"` // "config" or "token"
}

// chatClaims are the token claims the panel reads. The server verifies the
// signature; the client only needs the subject.
type chatClaims struct {
	jwt.RegisteredClaims
	Name      string `json:"name,omitempty"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
}

// Resolve builds an Identity from an explicit user id, falling back to the token.
func Resolve(userID, displayName, token string) (Identity, error) {
	userID = strings.TrimSpace(userID)
	if userID != "" {
		return Identity{UserID: userID, Name: strings.TrimSpace(displayName), Source: "config"}, nil
	}
	if strings.TrimSpace(token) == "" {
		return Identity{}, ErrMissing
	}

	id, err := FromToken(token)
	if err != nil {
		return Identity{}, err
	}
	if name := strings.TrimSpace(displayName); name != "" {
		id.Name = name
	}
	return id, nil
}

// FromToken reads the subject (and a display name when present) from a JWT
// without verifying its signature.
func FromToken(token string) (Identity, error) {
	var claims chatClaims
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(strings.TrimSpace(token), &claims); err != nil {
		return Identity{}, fmt.Errorf("parsing token: %w", err)
	}
	sub := strings.TrimSpace(claims.Subject)
	if sub == "" {
		return Identity{}, fmt.Errorf("token has no sub claim: %w", ErrMissing)
	}

	name := strings.TrimSpace(claims.Name)
	if name == "" {
		name = strings.TrimSpace(claims.FirstName + " " + claims.LastName)
	}
	return Identity{UserID: sub, Name: name, Source: "token"}, nil
}
