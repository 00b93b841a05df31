package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"crackerstore/internal/models"
	"crackerstore/internal/orderapi"
	"crackerstore/internal/repositories"

	"github.com/dgrijalva/jwt-go"
	"github.com/rs/zerolog/log"
)

// AdminAuthenticator verifies admin passwords against the backend.
type AdminAuthenticator interface {
	Login(ctx context.Context, username, password string) (*orderapi.LoginResult, error)
}

// AuthService handles admin login and the local sessions that carry the
// backend-issued credentials.
type AuthService struct {
	backend     AdminAuthenticator
	sessionRepo repositories.AdminSessionRepository
	jwtSecret   []byte
	tokenDurat  time.Duration // Duration for which JWT is valid
}

// NewAuthService creates a new AuthService.
func NewAuthService(backend AdminAuthenticator, sessionRepo repositories.AdminSessionRepository, jwtSecret string) *AuthService {
	return &AuthService{
		backend:     backend,
		sessionRepo: sessionRepo,
		jwtSecret:   []byte(jwtSecret),
		tokenDurat:  24 * time.Hour, // Token valid for 24 hours
	}
}

// LoginAdmin checks the password with the backend, stores the returned
// credentials in a new session and issues a JWT naming that session.
func (s *AuthService) LoginAdmin(ctx context.Context, username, password string) (string, *models.AdminSession, error) {
	result, err := s.backend.Login(ctx, username, password)
	if err != nil {
		var apiErr *orderapi.APIError
		if errors.As(err, &apiErr) {
			return "", nil, fmt.Errorf("%w: %s", ErrInvalidCredentials, apiErr.Message)
		}
		return "", nil, fmt.Errorf("admin login failed: %w", err)
	}

	session := &models.AdminSession{
		Username:    result.Username,
		Credentials: result.Credentials,
		CreatedAt:   time.Now(),
	}
	if err := s.sessionRepo.Create(session); err != nil {
		return "", nil, fmt.Errorf("failed to store admin session: %w", err)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"session_id": session.ID,
		"username":   session.Username,
		"exp":        time.Now().Add(s.tokenDurat).Unix(), // Token expiration time
		"iat":        time.Now().Unix(),                   // Issued at time
	})

	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate token: %w", err)
	}

	log.Info().Str("admin", session.Username).Str("session_id", session.ID).Msg("admin logged in")
	return tokenString, session, nil
}

// ValidateToken parses and validates a JWT token, returning the claims if valid.
func (s *AuthService) ValidateToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})

	if err != nil {
		log.Debug().Err(err).Msg("token validation error")
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, fmt.Errorf("invalid token")
}

// Authenticate validates the token and loads the session it names. A token
// whose session was revoked is rejected.
func (s *AuthService) Authenticate(tokenString string) (*models.AdminSession, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	sessionID, _ := claims["session_id"].(string)
	if sessionID == "" {
		return nil, fmt.Errorf("invalid token: missing session_id")
	}

	session, err := s.sessionRepo.GetByID(sessionID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("invalid token: %w", ErrSessionNotFound)
		}
		return nil, fmt.Errorf("failed to load admin session: %w", err)
	}
	return session, nil
}

// RevokeSession deletes an admin session so its token stops working.
func (s *AuthService) RevokeSession(sessionID string) error {
	if err := s.sessionRepo.Delete(sessionID); err != nil {
		return fmt.Errorf("failed to revoke admin session: %w", err)
	}
	log.Info().Str("session_id", sessionID).Msg("admin session revoked")
	return nil
}

// Logout ends the admin's session.
func (s *AuthService) Logout(sessionID string) error {
	return s.RevokeSession(sessionID)
}
