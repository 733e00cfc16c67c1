// Package platform opens the configured calendar backend and assembles the
// plugin around it.
package platform

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/sonroyaalmerol/device-calendar/internal/config"
	"github.com/sonroyaalmerol/device-calendar/internal/storage/filestore"
	"github.com/sonroyaalmerol/device-calendar/internal/storage/postgres"
	"github.com/sonroyaalmerol/device-calendar/internal/storage/sqlite"
	"github.com/sonroyaalmerol/device-calendar/internal/storage/sqlstore"
	"github.com/sonroyaalmerol/device-calendar/pkg/calendar"
	"github.com/sonroyaalmerol/device-calendar/pkg/eventstore"
	"github.com/sonroyaalmerol/device-calendar/pkg/handoff"
	"github.com/sonroyaalmerol/device-calendar/pkg/ics"
	"github.com/sonroyaalmerol/device-calendar/pkg/permission"
	"github.com/sonroyaalmerol/device-calendar/pkg/plugin"
	"github.com/sonroyaalmerol/device-calendar/pkg/provider"
)

type Runtime struct {
	Plugin *plugin.Plugin
	// Access is the backend's own permission host. It is nil for the
	// provider platform, whose permissions the application grants.
	Access permission.Host
}

// Open builds a Runtime for cfg. The returned cleanup closes the backend.
func Open(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*Runtime, func(), error) {
	var store calendar.Store
	var access permission.Host
	var cleanup func()

	switch cfg.Platform {
	case config.PlatformEventStore:
		fs, err := filestore.New(cfg.EventStore.Root, logger)
		if err != nil {
			return nil, nil, err
		}
		store = eventstore.New(fs, logger)
		access = &eventstore.AccessHost{Native: fs, Name: "eventstore"}
		cleanup = fs.Close
	case config.PlatformProvider:
		var r *sqlstore.Resolver
		var err error
		switch cfg.Provider.Driver {
		case "sqlite":
			r, err = sqlite.New(cfg.Provider.SQLitePath, logger)
		case "postgres":
			r, err = postgres.New(ctx, cfg.Provider.PostgresURL, logger)
		default:
			err = errors.New("unknown provider driver: " + cfg.Provider.Driver)
		}
		if err != nil {
			return nil, nil, err
		}
		store = provider.New(r, logger)
		cleanup = r.Close
	default:
		return nil, nil, errors.New("unknown platform: " + cfg.Platform)
	}

	gen := ics.NewGenerator(cfg.ICS.BuildProdID(), cfg.ICS.AppID)
	share := handoff.New(cfg.Handoff.Dir, cfg.Handoff.FileName, logger)
	p := plugin.New(store, permission.NewGate(logger), share, gen, logger)

	logger.Info().Str("platform", cfg.Platform).Msg("calendar runtime ready")
	return &Runtime{Plugin: p, Access: access}, cleanup, nil
}
