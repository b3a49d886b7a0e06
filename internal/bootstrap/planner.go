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
	"errors"
	"fmt"
	"path/filepath"

	"github.com/avast/retry-go"
)

const (
	versionMarkerName = "PG_VERSION"
	controlFileName   = "global/pg_control"
)

var errNotAccepting = errors.New("engine is not accepting connections yet")

// dataDirPresent reports whether the data directory holds an initialized
// cluster. A directory missing either the version marker or the control file
// is not start-able and only a full base backup can repair it.
func (c *Controller) dataDirPresent() (bool, error) {
	for _, name := range []string{versionMarkerName, controlFileName} {
		ok, err := afs.Exists(filepath.Join(c.cfg.DataDir, name))
		if err != nil {
			return false, fmt.Errorf("inspecting data directory: %w", err)
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// synchronize brings the local data directory onto the primary's timeline.
// An uninitialized directory gets a full base backup; an existing one is
// rewound incrementally, escalating per the failure classification.
func (c *Controller) synchronize(ctx context.Context) error {
	present, err := c.dataDirPresent()
	if err != nil {
		return err
	}

	if !present {
		c.log.Info("data directory is not initialized, taking a full base backup",
			"dataDir", c.cfg.DataDir)
		return c.fullBaseBackup(ctx)
	}

	return c.incrementalRewind(ctx)
}

// fullBaseBackup wipes the data directory and streams a complete copy from
// the primary. This is the maximal-effort recovery: failure is fatal, there
// is nothing further to fall back to.
func (c *Controller) fullBaseBackup(ctx context.Context) error {
	if err := afs.RemoveAll(c.cfg.DataDir); err != nil {
		return fmt.Errorf("removing data directory: %w", err)
	}
	if err := afs.MkdirAll(c.cfg.DataDir, 0o700); err != nil {
		return fmt.Errorf("recreating data directory: %w", err)
	}

	if err := c.tools.BaseBackup(ctx, c.cfg.DataDir); err != nil {
		return fmt.Errorf("base backup from %s: %w", c.cfg.PrimaryHost, err)
	}

	c.log.Info("base backup completed", "dataDir", c.cfg.DataDir)
	return nil
}

func (c *Controller) incrementalRewind(ctx context.Context) error {
	err := c.tools.Rewind(ctx, c.cfg.DataDir)
	if err == nil {
		c.log.Info("rewind completed")
		return nil
	}

	outcome, output := classifyRewindError(err)
	c.log.Info("rewind failed", "outcome", outcome)

	if outcome == RewindShutdownNotClean {
		if err := c.enforceCleanShutdown(ctx); err != nil {
			return err
		}

		if err := c.tools.Rewind(ctx, c.cfg.DataDir); err == nil {
			c.log.Info("rewind completed after clean shutdown")
			return nil
		} else {
			outcome, output = classifyRewindError(err)
			c.log.Info("rewind retry failed", "outcome", outcome)
		}

		if outcome == RewindShutdownNotClean {
			// the precondition was just enforced, a repeat of the same
			// complaint is an unknown failure mode
			return &UnrecoverableError{Stage: "rewind", Output: output}
		}
	}

	switch outcome {
	case RewindMissingWAL, RewindNoCommonAncestor, RewindChecksumsDisabled:
		c.log.Info("rewind cannot recover the local timeline, escalating to a full base backup",
			"outcome", outcome)
		return c.fullBaseBackup(ctx)
	default:
		return &UnrecoverableError{Stage: "rewind", Output: output}
	}
}

// enforceCleanShutdown starts the engine in the background (unless a
// postmaster is already up), waits until it accepts connections, then stops
// it cleanly, leaving the data directory in the state pg_rewind requires.
// The replication config is materialized first so the throwaway start runs
// with replica settings.
func (c *Controller) enforceCleanShutdown(ctx context.Context) error {
	c.log.Info("engine was not shut down cleanly, enforcing a clean shutdown before rewind")

	if err := c.conf.Materialize(c.cfg.DataDir); err != nil {
		return fmt.Errorf("materializing replication config: %w", err)
	}

	running, err := c.engine.IsRunning(ctx)
	if err != nil {
		return fmt.Errorf("checking engine status: %w", err)
	}

	if !running {
		if err := c.engine.Start(ctx); err != nil {
			return fmt.Errorf("starting engine: %w", err)
		}
	}

	if err := retry.Do(
		func() error {
			accepting, err := c.engine.IsAccepting(ctx)
			if err != nil {
				return err
			}
			if !accepting {
				return errNotAccepting
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(c.cfg.EngineWaitAttempts),
		retry.Delay(c.cfg.PollInterval),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
	); err != nil {
		return fmt.Errorf("waiting for engine to accept connections: %w", err)
	}

	if err := c.engine.Stop(ctx); err != nil {
		return fmt.Errorf("stopping engine: %w", err)
	}

	return nil
}
