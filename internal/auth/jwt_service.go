package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

const (
	// AccessTokenExpiry bounds how long a bearer token is accepted.
	AccessTokenExpiry = 15 * time.Minute
	// RefreshTokenExpiry bounds how long a session can be renewed.
	RefreshTokenExpiry = 7 * 24 * time.Hour

	// KindAccess marks tokens accepted on authenticated routes.
	KindAccess = "access"
	// KindRefresh marks tokens only accepted by the refresh endpoint.
	KindRefresh = "refresh"

	issuer = "backoffice"
)

var (
	// ErrTokenInvalid covers bad signatures, expiry and malformed tokens.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrTokenKind is returned when a valid token is presented in the wrong place.
	ErrTokenKind = errors.New("token kind mismatch")
)

// Claims identifies the token owner. The role is not carried; it is read
// from the user record on every request.
type Claims struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	Kind   string `json:"kind"`
	jwt.RegisteredClaims
}

// JWTService signs and verifies HS256 tokens.
type JWTService struct {
	secret []byte
}

// NewJWTService creates a JWT service signing with secret.
func NewJWTService(secret string) *JWTService {
	return &JWTService{secret: []byte(secret)}
}

// GenerateAccessToken issues a short-lived access token. Its ID is what
// logout blacklists.
func (s *JWTService) GenerateAccessToken(userID uint, email string) (string, error) {
	_, token, err := s.sign(userID, email, KindAccess, AccessTokenExpiry)
	return token, err
}

// GenerateRefreshToken issues a refresh token and returns its ID for the
// token store.
func (s *JWTService) GenerateRefreshToken(userID uint, email string) (tokenID string, token string, err error) {
	return s.sign(userID, email, KindRefresh, RefreshTokenExpiry)
}

func (s *JWTService) sign(userID uint, email, kind string, ttl time.Duration) (string, string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: userID,
		Email:  email,
		Kind:   kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    issuer,
			Subject:   fmt.Sprint(userID),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", "", fmt.Errorf("sign %s token: %w", kind, err)
	}
	return claims.ID, signed, nil
}

// ValidateToken verifies signature and lifetime of any token we issued.
func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.ID == "" || !claims.VerifyIssuer(issuer, true) {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// Parse validates tokenString and requires it to be of the given kind.
func (s *JWTService) Parse(tokenString, kind string) (*Claims, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Kind != kind {
		return nil, ErrTokenKind
	}
	return claims, nil
}

// RemainingTTL returns how long the claims stay valid, floored at zero.
func RemainingTTL(claims *Claims) time.Duration {
	if claims == nil || claims.ExpiresAt == nil {
		return 0
	}
	if d := time.Until(claims.ExpiresAt.Time); d > 0 {
		return d
	}
	return 0
}
