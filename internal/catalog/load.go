package catalog

import (
	"context"

	"github.com/davidbz/costdesk/internal/observability"
)

// Load reads the catalog at path, or returns the built-in table when path is
// empty. The built-in table is not authoritative, so using it is logged.
func Load(ctx context.Context, path string) (*File, error) {
	logger := observability.FromContext(ctx)

	if path == "" {
		logger.Warn("no CATALOG_PATH configured, using built-in pricing table")
		return Defaults(), nil
	}

	f, err := LoadFile(path)
	if err != nil {
		return nil, err
	}

	logger.Info("pricing catalog loaded",
		observability.String("path", path),
		observability.Int("tools", len(f.Tools)),
		observability.Int("clients", len(f.Clients)))

	return f, nil
}
