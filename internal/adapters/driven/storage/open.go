// Package storage selects the snapshot backend named in settings.
package storage

import (
	"context"
	"fmt"

	"github.com/custodia-labs/troubleshoot/internal/adapters/driven/storage/badger"
	"github.com/custodia-labs/troubleshoot/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/troubleshoot/internal/adapters/driven/storage/postgres"
	"github.com/custodia-labs/troubleshoot/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/troubleshoot/internal/core/domain"
	"github.com/custodia-labs/troubleshoot/internal/core/ports/driven"
)

// Open creates the snapshot store for settings.Backend.
func Open(ctx context.Context, settings domain.StorageSettings) (driven.SnapshotStore, error) {
	switch settings.Backend {
	case domain.SnapshotSQLite, "":
		return sqlite.NewStore(settings.DataDir)
	case domain.SnapshotBadger:
		return badger.NewStore(settings.DataDir)
	case domain.SnapshotPostgres:
		if settings.DatabaseURL == "" {
			return nil, fmt.Errorf("%w: storage.database_url is required for postgres", domain.ErrInvalidArgument)
		}
		return postgres.NewStore(ctx, settings.DatabaseURL)
	case domain.SnapshotMemory:
		return memory.NewSnapshotStore(), nil
	default:
		return nil, fmt.Errorf("%w: unknown storage backend %q", domain.ErrInvalidArgument, settings.Backend)
	}
}
