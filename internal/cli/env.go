package cli

import (
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/GTDGit/pdv_api/internal/config"
	"github.com/GTDGit/pdv_api/internal/database"
	"github.com/GTDGit/pdv_api/internal/utils"
)

// env is the runtime every database-backed command needs.
type env struct {
	cfg *config.Config
	db  *sqlx.DB
}

func openEnv() (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	utils.SetJWTConfig(cfg.JWTSecret, cfg.JWTTTL)
	db, err := database.Connect(&cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	return &env{cfg: cfg, db: db}, nil
}

func (e *env) Close() error {
	return e.db.Close()
}
