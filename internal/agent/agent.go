// Package agent hosts the orchestration entry points that tie matching,
// geocoding and dispatch together. Each entry point runs to completion
// within one inbound request; there is no background scheduler here.
package agent

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"imoveisdf/server/internal/database"
	"imoveisdf/server/internal/geocoding"
	"imoveisdf/server/internal/matching"
	"imoveisdf/server/internal/whatsapp"
)

// ErrInvalidPrice rejects non-positive price updates before touching the store.
var ErrInvalidPrice = errors.New("price must be greater than zero")

// PostalResolver is the geocoding capability the agent consumes.
type PostalResolver interface {
	Resolve(ctx context.Context, code string) (*geocoding.Result, error)
}

// Service wires the stores, the scoring engine, the dispatcher and the
// geocoder behind the admin-facing operations.
type Service struct {
	logger     *logrus.Logger
	db         *database.Database
	engine     *matching.Engine
	dispatcher *whatsapp.Dispatcher
	geocoder   PostalResolver
	now        func() time.Time
}

func NewService(logger *logrus.Logger, db *database.Database, engine *matching.Engine, dispatcher *whatsapp.Dispatcher, geocoder PostalResolver) *Service {
	return &Service{
		logger:     logger,
		db:         db,
		engine:     engine,
		dispatcher: dispatcher,
		geocoder:   geocoder,
		now:        time.Now,
	}
}
