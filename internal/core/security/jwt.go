package security

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"chalin/internal/core/id"
)

// JWTConfig holds JWT configuration.
type JWTConfig struct {
	Secret         string
	Issuer         string
	AccessTokenTTL time.Duration
}

// DefaultJWTConfig returns default JWT configuration.
func DefaultJWTConfig(secret string) JWTConfig {
	return JWTConfig{
		Secret:         secret,
		Issuer:         "chalin",
		AccessTokenTTL: 15 * time.Minute,
	}
}

// Claims represents JWT claims.
type Claims struct {
	jwt.RegisteredClaims
	UserID    string   `json:"uid"`
	Role      string   `json:"role"`
	IsAdmin   bool     `json:"adm,omitempty"`
	BranchIDs []string `json:"branches,omitempty"`
}

// JWTService issues and validates access tokens.
type JWTService struct {
	config JWTConfig
}

// NewJWTService creates a new JWT service.
func NewJWTService(config JWTConfig) *JWTService {
	return &JWTService{config: config}
}

// GenerateAccessToken generates a new access token for the scope.
func (s *JWTService) GenerateAccessToken(scope *Scope) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(s.config.AccessTokenTTL)

	branchIDs := make([]string, 0, len(scope.BranchIDs))
	for _, b := range scope.BranchIDs {
		branchIDs = append(branchIDs, b.String())
	}

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   scope.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		UserID:    scope.UserID,
		Role:      string(scope.Role),
		IsAdmin:   scope.IsAdmin,
		BranchIDs: branchIDs,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.config.Secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}

	return tokenString, expiresAt, nil
}

// ValidateToken validates a JWT and returns the capability scope it carries.
func (s *JWTService) ValidateToken(tokenString string) (*Scope, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.Secret), nil
	})

	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	branchIDs := make([]id.ID, 0, len(claims.BranchIDs))
	for _, raw := range claims.BranchIDs {
		branchID, err := id.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid branch id in token: %w", err)
		}
		branchIDs = append(branchIDs, branchID)
	}

	return &Scope{
		UserID:    claims.UserID,
		Role:      Role(claims.Role),
		IsAdmin:   claims.IsAdmin,
		BranchIDs: branchIDs,
	}, nil
}
