package handlers

import (
	"github.com/uptrace/bun"
	"go.uber.org/zap"

	"github.com/rodeoware/ropingapi/audit"
	"github.com/rodeoware/ropingapi/core"
)

// Handler holds shared dependencies used by all route handlers.
type Handler struct {
	db     *bun.DB
	engine *core.Engine
	audit  *audit.Recorder
	log    *zap.Logger
	JWTKey []byte
}

// New creates a Handler with the given dependencies.
func New(db *bun.DB, engine *core.Engine, rec *audit.Recorder, log *zap.Logger, jwtKey []byte) *Handler {
	return &Handler{db: db, engine: engine, audit: rec, log: log, JWTKey: jwtKey}
}
