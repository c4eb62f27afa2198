package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/GTDGit/pdv_api/internal/utils"
)

const (
	defaultPage  = 1
	defaultLimit = 20
	maxLimit     = 100
)

// pathID parses the :id route parameter. On failure it writes a 400 and
// returns false.
func pathID(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		utils.Error(c, 400, "INVALID_ID", "Invalid "+name)
		return 0, false
	}
	return id, true
}

// optionalInt parses an optional integer query parameter.
func optionalInt(c *gin.Context, key string) (*int, bool) {
	raw := c.Query(key)
	if raw == "" {
		return nil, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid "+key)
		return nil, false
	}
	return &v, true
}

// pagination reads page and limit, falling back to defaults on bad input.
func pagination(c *gin.Context) (page, limit int) {
	page, limit = defaultPage, defaultLimit
	if p, err := strconv.Atoi(c.Query("page")); err == nil && p > 0 {
		page = p
	}
	if l, err := strconv.Atoi(c.Query("limit")); err == nil && l > 0 {
		limit = l
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return page, limit
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid request body")
		return false
	}
	return true
}
