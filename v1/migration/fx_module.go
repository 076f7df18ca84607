package migration

import (
	"context"

	"go.uber.org/fx"

	"github.com/Aleph-Alpha/vecschema/v1/logger"
	"github.com/Aleph-Alpha/vecschema/v1/observability"
	"github.com/Aleph-Alpha/vecschema/v1/tracer"
	"github.com/Aleph-Alpha/vecschema/v1/vectordb"
)

// FXModule provides *Manager and creates the history collection on start.
//
// Usage:
//
//	app := fx.New(
//	    fx.Supply(migration.DefaultConfig()),
//	    qdrant.FXModule,
//	    migration.FXModule,
//	)
//
// A migration.Locker, ContractValidator or ContractArchive in the container
// replaces the corresponding default. An EventPublisher, when provided,
// receives an Event per applied or rolled back migration.
var FXModule = fx.Module("migration",
	fx.Provide(
		NewManagerWithDI,
	),
	fx.Invoke(RegisterMigrationLifecycle),
)

// ManagerParams groups the dependencies needed to create a Manager.
type ManagerParams struct {
	fx.In

	Config    Config
	Store     vectordb.Store
	Logger    logger.Logger          `optional:"true"`
	Tracer    *tracer.Tracer         `optional:"true"`
	Observer  observability.Observer `optional:"true"`
	Locker    Locker                 `optional:"true"`
	Validator ContractValidator      `optional:"true"`
	Archive   ContractArchive        `optional:"true"`
	Publisher EventPublisher         `optional:"true"`
}

// NewManagerWithDI creates a Manager from injected dependencies. A configured
// ContractDir is used as archive when no ContractArchive is provided.
func NewManagerWithDI(p ManagerParams) *Manager {
	archive := p.Archive
	if archive == nil && p.Config.ContractDir != "" {
		archive = NewDirArchive(p.Config.ContractDir)
	}

	opts := []Option{
		WithHistoryCollection(p.Config.HistoryCollection),
		WithLogger(p.Logger),
		WithTracer(p.Tracer),
		WithObserver(p.Observer),
		WithLocker(p.Locker),
		WithArchive(archive),
		WithPublisher(p.Publisher),
		WithProbeDimension(p.Config.ProbeDimension),
	}
	switch {
	case p.Validator != nil:
		opts = append(opts, WithValidator(p.Validator))
	case !p.Config.ValidateContracts:
		opts = append(opts, WithValidator(NopValidator{}))
	}
	return NewManager(p.Store, opts...)
}

// RegisterMigrationLifecycle creates the history collection on start when
// Config.InitializeOnStart is set.
func RegisterMigrationLifecycle(lc fx.Lifecycle, m *Manager, cfg Config) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if !cfg.InitializeOnStart {
				return nil
			}
			return m.Initialize(ctx)
		},
	})
}
