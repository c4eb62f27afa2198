package service

import (
	"database/sql"
	"errors"

	"github.com/GTDGit/pdv_api/internal/models"
	"github.com/GTDGit/pdv_api/internal/utils"
)

// Actor is the authenticated operator performing an operation.
type Actor struct {
	OperatorID   int
	Username     string
	Name         string
	Role         models.OperatorRole
	AttractionID *int
}

// IsAdmin reports whether the actor has the admin role.
func (a Actor) IsAdmin() bool { return a.Role == models.RoleAdmin }

// Attraction returns the attraction the actor is restricted to, if any. An
// attraction-scoped actor without an affiliation is restricted to nothing.
func (a Actor) Attraction() (int, bool) {
	if a.Role != models.RoleAttraction {
		return 0, false
	}
	if a.AttractionID == nil {
		return 0, true
	}
	return *a.AttractionID, true
}

// CanAccessAttraction reports whether the actor may act on attractionID.
// A nil attractionID is only accessible to unrestricted actors.
func (a Actor) CanAccessAttraction(attractionID *int) bool {
	scope, restricted := a.Attraction()
	if !restricted {
		return true
	}
	return attractionID != nil && *attractionID == scope
}

// notFound translates sql.ErrNoRows into the not-found class for entity.
func notFound(err error, entity string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return utils.NotFound(entity)
	}
	return err
}
