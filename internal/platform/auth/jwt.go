package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"rbac/internal/platform/config"
)

const (
	TokenKindAccess  = "access"
	TokenKindRefresh = "refresh"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims binds the token kind into the signed payload so an access token
// can never be replayed as a refresh token or vice versa. Subject is the
// user's email.
type Claims struct {
	TokenKind string `json:"kind"`
	jwt.RegisteredClaims
}

type TokenService struct {
	config config.JWTConfig
}

func NewTokenService(cfg config.JWTConfig) *TokenService {
	return &TokenService{config: cfg}
}

func (s *TokenService) IssueAccessToken(email string) (string, error) {
	return s.issue(email, TokenKindAccess, s.config.AccessTokenTTL)
}

func (s *TokenService) IssueRefreshToken(email string) (string, error) {
	return s.issue(email, TokenKindRefresh, s.config.RefreshTokenTTL)
}

func (s *TokenService) issue(email, kind string, ttl time.Duration) (string, error) {
	claims := Claims{
		TokenKind: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "rbac",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.Secret))
}

// VerifyAccessToken returns the subject email of a valid access token. It
// fails on bad signature, malformed structure, expiry, or wrong kind.
func (s *TokenService) VerifyAccessToken(tokenString string) (string, error) {
	return s.verify(tokenString, TokenKindAccess)
}

// VerifyRefreshToken is VerifyAccessToken for the refresh kind.
func (s *TokenService) VerifyRefreshToken(tokenString string) (string, error) {
	return s.verify(tokenString, TokenKindRefresh)
}

func (s *TokenService) verify(tokenString, kind string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(s.config.Secret), nil
	})
	if err != nil {
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return "", ErrInvalidToken
	}
	if claims.TokenKind != kind || claims.Subject == "" {
		return "", ErrInvalidToken
	}

	return claims.Subject, nil
}
