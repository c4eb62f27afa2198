package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/GTDGit/pdv_api/internal/models"
	"github.com/GTDGit/pdv_api/internal/utils"
)

// OperatorFinder looks operators up by login name.
type OperatorFinder interface {
	GetByUsername(ctx context.Context, username string) (*models.Operator, error)
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	Token     string           `json:"token"`
	ExpiresAt time.Time        `json:"expiresAt"`
	Operator  *models.Operator `json:"operator"`
}

// AuthService authenticates operators and issues access tokens.
type AuthService struct {
	operators OperatorFinder
}

// NewAuthService constructs a new AuthService.
func NewAuthService(operators OperatorFinder) *AuthService {
	return &AuthService{operators: operators}
}

// Login verifies the operator's password and returns a signed token. Unknown,
// inactive and wrong-password logins all fail with the same error.
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, utils.Validationf("username and password are required")
	}
	log.Debug().Str("username", username).Msg("Login attempt")

	op, err := s.operators.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Warn().Str("username", username).Msg("Unknown operator")
			return nil, utils.ErrInvalidCredentials
		}
		return nil, err
	}
	if !op.IsActive {
		log.Warn().Str("username", username).Msg("Account is inactive")
		return nil, utils.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(op.PasswordHash), []byte(password)); err != nil {
		log.Warn().Str("username", username).Msg("Password verification failed")
		return nil, utils.ErrInvalidCredentials
	}

	token, exp, err := utils.GenerateJWT(op.ID, op.Username, op.Name, string(op.Role), op.AttractionID)
	if err != nil {
		return nil, err
	}
	log.Info().Int("operator_id", op.ID).Str("username", username).Msg("Login successful")
	return &LoginResult{Token: token, ExpiresAt: exp, Operator: op}, nil
}

// ActorFromClaims rebuilds the acting operator from a validated token.
func ActorFromClaims(c *utils.Claims) Actor {
	return Actor{
		OperatorID:   c.OperatorID,
		Username:     c.Username,
		Name:         c.Name,
		Role:         models.OperatorRole(c.Role),
		AttractionID: c.AttractionID,
	}
}
