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
	"time"
)

type waitResult int

const (
	primaryReady waitResult = iota
	promotedSelf
)

// promotionRequested reports whether the orchestrator has dropped the
// promotion trigger file. Pure predicate, checked on every poll iteration.
func (c *Controller) promotionRequested() (bool, error) {
	ok, err := afs.Exists(c.cfg.TriggerFile)
	if err != nil {
		return false, fmt.Errorf("checking trigger file %s: %w", c.cfg.TriggerFile, err)
	}
	return ok, nil
}

// waitForPrimary polls until the primary both answers the liveness check and
// completes a query round-trip. There is no retry bound: a replica with no
// reachable primary must keep waiting rather than crash-loop the container.
// The promotion trigger preempts waiting at every iteration.
func (c *Controller) waitForPrimary(ctx context.Context) (waitResult, error) {
	for {
		promoted, err := c.promotionRequested()
		if err != nil {
			return 0, err
		}
		if promoted {
			return promotedSelf, nil
		}

		accepting, err := c.probe.IsAccepting(ctx)
		switch {
		case err != nil:
			c.log.Warn("primary liveness check failed", "host", c.cfg.PrimaryHost, "err", err)
		case !accepting:
			c.log.Info("waiting for primary", "host", c.cfg.PrimaryHost)
		default:
			if err := c.probe.QueryRoundTrip(ctx); err == nil {
				return primaryReady, nil
			} else {
				c.log.Info("primary is reachable but not answering queries yet",
					"host", c.cfg.PrimaryHost, "err", err)
			}
		}

		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(c.cfg.PollInterval):
		}
	}
}
