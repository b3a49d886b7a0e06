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

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/deckhouse/sds-common-lib/slogh"

	"github.com/alekitto/postgres-docker/internal/bootstrap"
	"github.com/alekitto/postgres-docker/internal/config"
	"github.com/alekitto/postgres-docker/internal/postgres"
	"github.com/alekitto/postgres-docker/pkg/pgconf"
)

func main() {
	logHandler := &slogh.Handler{}

	log := slog.New(logHandler).
		With("startedAt", time.Now().Format(time.RFC3339))

	log.Info("replica bootstrap started")

	// the only way run returns without an error is a failed exec; every
	// success path replaces this process with the engine
	err := run(context.Background(), log)

	var unrecoverable *bootstrap.UnrecoverableError
	if errors.As(err, &unrecoverable) {
		log.Error("synchronization cannot proceed, refusing to start the engine",
			"stage", unrecoverable.Stage, "output", unrecoverable.Output)
	} else {
		log.Error("replica bootstrap failed", "err", err)
	}
	os.Exit(1)
}

func run(ctx context.Context, log *slog.Logger) error {
	cfg, err := config.New()
	if err != nil {
		return fmt.Errorf("getting env config: %w", err)
	}
	log = log.With("nodeName", cfg.NodeName)

	probe := &postgres.Probe{
		Host:     cfg.PrimaryHost,
		Port:     cfg.Port,
		User:     "postgres",
		Password: cfg.PostgresPassword,
	}

	engine := &postgres.Engine{
		DataDir: cfg.DataDir,
		Port:    cfg.Port,
	}

	tools := &postgres.SyncTools{
		Host:              cfg.PrimaryHost,
		Port:              cfg.Port,
		ReplicationUser:   cfg.ReplicationUser,
		SuperUser:         "postgres",
		SuperUserPassword: cfg.PostgresPassword,
	}

	conf := &postgres.ConfWriter{
		Opts: &pgconf.Options{
			PrimaryHost:          cfg.PrimaryHost,
			PrimaryPort:          cfg.Port,
			ReplicationUser:      cfg.ReplicationUser,
			ReplicationPassword:  cfg.PostgresPassword,
			NodeName:             cfg.NodeName,
			HotStandby:           cfg.HotStandby,
			SynchronousStreaming: cfg.SynchronousStreaming,
			TriggerFile:          cfg.TriggerFile,
		},
	}

	return bootstrap.NewController(log, cfg, probe, engine, tools, conf).Run(ctx)
}
