package service

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/GTDGit/pdv_api/internal/models"
	"github.com/GTDGit/pdv_api/internal/repository"
	"github.com/GTDGit/pdv_api/internal/utils"
)

const defaultAdminUsername = "admin"

// OperatorStore persists operators.
type OperatorStore interface {
	GetByID(ctx context.Context, id int) (*models.Operator, error)
	ListActive(ctx context.Context) ([]models.Operator, error)
	Count(ctx context.Context) (int, error)
	Create(ctx context.Context, op *models.Operator) error
	Deactivate(ctx context.Context, id int) error
}

// CreateOperatorRequest is the body of POST /api/operators.
type CreateOperatorRequest struct {
	Name         string              `json:"name" binding:"required"`
	Username     string              `json:"username" binding:"required"`
	Password     string              `json:"password" binding:"required"`
	Role         models.OperatorRole `json:"role"`
	AttractionID *int                `json:"attractionId"`
}

// OperatorService manages operator accounts.
type OperatorService struct {
	operators   OperatorStore
	attractions AttractionGetter
	hashCost    int
}

func NewOperatorService(operators OperatorStore, attractions AttractionGetter) *OperatorService {
	return &OperatorService{operators: operators, attractions: attractions, hashCost: bcrypt.DefaultCost}
}

// List returns the active operators.
func (s *OperatorService) List(ctx context.Context) ([]models.Operator, error) {
	return s.operators.ListActive(ctx)
}

// Create registers an operator. Attraction-scoped operators must be linked to
// an existing attraction; other roles never carry one.
func (s *OperatorService) Create(ctx context.Context, req CreateOperatorRequest) (*models.Operator, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Username = strings.TrimSpace(req.Username)
	if req.Name == "" || req.Username == "" || req.Password == "" {
		return nil, utils.Validationf("name, username and password are required")
	}
	role, err := ParseRole(string(req.Role))
	if err != nil {
		return nil, err
	}

	var attractionID *int
	if role == models.RoleAttraction {
		if req.AttractionID == nil {
			return nil, utils.Validationf("attractionId is required for attraction operators")
		}
		if _, err := s.attractions.GetByID(ctx, *req.AttractionID); err != nil {
			return nil, notFound(err, "attraction")
		}
		attractionID = req.AttractionID
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.hashCost)
	if err != nil {
		return nil, err
	}
	op := &models.Operator{
		Name:         req.Name,
		Username:     req.Username,
		PasswordHash: string(hash),
		Role:         role,
		AttractionID: attractionID,
	}
	if err := s.operators.Create(ctx, op); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, utils.ErrDuplicateUsername
		}
		return nil, err
	}
	log.Info().Int("operator_id", op.ID).Str("username", op.Username).Str("role", string(role)).Msg("Operator created")
	return op, nil
}

// Deactivate soft-deletes an operator. Operators cannot deactivate themselves.
func (s *OperatorService) Deactivate(ctx context.Context, actor Actor, id int) error {
	if id == actor.OperatorID {
		return utils.ErrSelfDeactivation
	}
	if err := s.operators.Deactivate(ctx, id); err != nil {
		return notFound(err, "operator")
	}
	log.Info().Int("operator_id", id).Int("by", actor.OperatorID).Msg("Operator deactivated")
	return nil
}

// EnsureAdmin creates the default admin operator when no operator exists yet.
// An empty password is replaced by a generated one, which is returned.
func (s *OperatorService) EnsureAdmin(ctx context.Context, password string) (created bool, generated string, err error) {
	n, err := s.operators.Count(ctx)
	if err != nil {
		return false, "", err
	}
	if n > 0 {
		return false, "", nil
	}
	if password == "" {
		if password, err = utils.GeneratePassword(8); err != nil {
			return false, "", err
		}
		generated = password
	}
	_, err = s.Create(ctx, CreateOperatorRequest{
		Name:     "Administrador",
		Username: defaultAdminUsername,
		Password: password,
		Role:     models.RoleAdmin,
	})
	if err != nil {
		return false, "", err
	}
	log.Warn().Str("username", defaultAdminUsername).Msg("Default admin operator created")
	return true, generated, nil
}

// ParseRole accepts the role names and their legacy Portuguese aliases. An
// empty role is staff.
func ParseRole(s string) (models.OperatorRole, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "usuario", string(models.RoleStaff):
		return models.RoleStaff, nil
	case "administrador", string(models.RoleAdmin):
		return models.RoleAdmin, nil
	case "atracao", string(models.RoleAttraction):
		return models.RoleAttraction, nil
	}
	return "", utils.Validationf("invalid role %q", s)
}
