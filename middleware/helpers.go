package middleware

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

const (
	jwtClaimUserID   = "user_id"
	jwtClaimUsername = "username"
)

// NewToken signs an operator token valid for ttl.
func NewToken(secret []byte, userID uuid.UUID, username string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		jwtClaimUserID:   userID.String(),
		jwtClaimUsername: username,
		"exp":            now.Add(ttl).Unix(),
		"iat":            now.Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func GetUserIDFromContext(ctx context.Context) (uuid.UUID, error) {
	claims, ok := ctx.Value(userContextKey).(jwt.MapClaims)
	if !ok {
		return uuid.Nil, errors.New("user claims not found in context or invalid type")
	}

	raw, ok := claims[jwtClaimUserID].(string)
	if !ok {
		return uuid.Nil, fmt.Errorf("missing '%s' claim in token", jwtClaimUserID)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid '%s' claim: %w", jwtClaimUserID, err)
	}
	return id, nil
}
