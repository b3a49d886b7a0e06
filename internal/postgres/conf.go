package postgres

import (
	"github.com/alekitto/postgres-docker/pkg/pgconf"
)

// ConfWriter materializes the replication configuration through pgconf.
type ConfWriter struct {
	Opts *pgconf.Options
}

func (w *ConfWriter) Materialize(dataDir string) error {
	return pgconf.Materialize(dataDir, w.Opts)
}
