/*
Copyright 2025 Flant JSC

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alekitto/postgres-docker/internal/config"
)

// PrimaryProbe checks the designated primary from this node's point of view.
type PrimaryProbe interface {
	// IsAccepting reports whether the primary responds to a liveness check.
	IsAccepting(ctx context.Context) (bool, error)
	// QueryRoundTrip executes a trivial read against the primary. Guards
	// against a primary that is reachable but not yet accepting queries,
	// e.g. during its own failover.
	QueryRoundTrip(ctx context.Context) error
}

// Engine controls the local database server during synchronization. Start
// backgrounds immediately; Stop blocks until clean shutdown is confirmed.
type Engine interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	// IsRunning reports whether a postmaster already owns the data
	// directory, e.g. one left behind by a crashed previous bootstrap.
	IsRunning(ctx context.Context) (bool, error)
	IsAccepting(ctx context.Context) (bool, error)
}

// SyncTools are the two resynchronization operations against the primary.
type SyncTools interface {
	// BaseBackup streams a full copy of the primary's data directory into
	// dataDir, which must exist and be empty.
	BaseBackup(ctx context.Context, dataDir string) error
	// Rewind resynchronizes dataDir incrementally; a failure error carries
	// the tool's combined output.
	Rewind(ctx context.Context, dataDir string) error
}

// ConfigMaterializer writes the replication configuration into dataDir.
type ConfigMaterializer interface {
	Materialize(dataDir string) error
}

// Controller decides, on every process start, how to resynchronize the local
// data directory with the primary, then replaces itself with the engine.
type Controller struct {
	log    *slog.Logger
	cfg    *config.Options
	probe  PrimaryProbe
	engine Engine
	tools  SyncTools
	conf   ConfigMaterializer
}

func NewController(
	log *slog.Logger,
	cfg *config.Options,
	probe PrimaryProbe,
	engine Engine,
	tools SyncTools,
	conf ConfigMaterializer,
) *Controller {
	if log == nil {
		log = slog.Default()
	}
	return &Controller{
		log:    log,
		cfg:    cfg,
		probe:  probe,
		engine: engine,
		tools:  tools,
		conf:   conf,
	}
}

// Run executes the full replica startup sequence. On success it does not
// return: the process image is replaced by the engine (or by the primary
// entrypoint when a promotion trigger is observed).
func (c *Controller) Run(ctx context.Context) error {
	res, err := c.waitForPrimary(ctx)
	if err != nil {
		return fmt.Errorf("waiting for primary: %w", err)
	}

	if res == promotedSelf {
		c.log.Info("promotion trigger found, transferring control to primary startup",
			"entrypoint", c.cfg.PrimaryEntrypoint)
		return c.execPrimary()
	}

	if err := c.synchronize(ctx); err != nil {
		return err
	}

	if err := c.conf.Materialize(c.cfg.DataDir); err != nil {
		return fmt.Errorf("materializing replication config: %w", err)
	}

	c.log.Info("replication ready, handing off to the engine", "dataDir", c.cfg.DataDir)
	return c.execReplica()
}
