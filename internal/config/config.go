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

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	PrimaryHostEnvVar       = "PRIMARY_HOST"
	PostgresPasswordEnvVar  = "POSTGRES_PASSWORD"
	ReplicationUserEnvVar   = "REPLICATION_USER"
	StandbyModeEnvVar       = "STANDBY_MODE"
	StreamingModeEnvVar     = "STREAMING_MODE"
	DataDirEnvVar           = "PGDATA"
	PortEnvVar              = "PGPORT"
	TriggerFileEnvVar       = "PROMOTE_TRIGGER_FILE"
	PrimaryEntrypointEnvVar = "PRIMARY_ENTRYPOINT"
	NodeNameEnvVar          = "NODE_NAME"

	DefaultPostgresPassword  = "postgres"
	DefaultReplicationUser   = "replication"
	DefaultDataDir           = "/var/lib/postgresql/data"
	DefaultPort              = uint16(5432)
	DefaultTriggerFile       = "/tmp/pg-promote-trigger"
	DefaultPrimaryEntrypoint = "/usr/local/bin/primary-start.sh"

	StandbyModeHot  = "hot"
	StandbyModeWarm = "warm"

	StreamingModeSynchronous  = "synchronous"
	StreamingModeAsynchronous = "asynchronous"
)

// Options is the immutable runtime configuration, built once at startup.
type Options struct {
	PrimaryHost          string
	PostgresPassword     string
	ReplicationUser      string
	HotStandby           bool
	SynchronousStreaming bool
	DataDir              string
	Port                 uint16
	TriggerFile          string
	PrimaryEntrypoint    string
	NodeName             string

	// PollInterval paces every retry loop: the primary-wait loop and the
	// engine-ready wait inside the rewind cleanup-restart.
	PollInterval time.Duration

	// EngineWaitAttempts bounds the engine-ready wait after a background
	// start; unlike the primary wait, a local engine that never comes up is
	// a hard failure.
	EngineWaitAttempts uint
}

func New() (*Options, error) {
	cfg := &Options{
		PostgresPassword:   DefaultPostgresPassword,
		ReplicationUser:    DefaultReplicationUser,
		DataDir:            DefaultDataDir,
		Port:               DefaultPort,
		TriggerFile:        DefaultTriggerFile,
		PrimaryEntrypoint:  DefaultPrimaryEntrypoint,
		PollInterval:       2 * time.Second,
		EngineWaitAttempts: 30,
	}

	cfg.PrimaryHost = os.Getenv(PrimaryHostEnvVar)
	if cfg.PrimaryHost == "" {
		return nil, fmt.Errorf("%s is required", PrimaryHostEnvVar)
	}

	if v := os.Getenv(PostgresPasswordEnvVar); v != "" {
		cfg.PostgresPassword = v
	}
	if v := os.Getenv(ReplicationUserEnvVar); v != "" {
		cfg.ReplicationUser = v
	}
	if v := os.Getenv(DataDirEnvVar); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv(TriggerFileEnvVar); v != "" {
		cfg.TriggerFile = v
	}
	if v := os.Getenv(PrimaryEntrypointEnvVar); v != "" {
		cfg.PrimaryEntrypoint = v
	}

	switch v := os.Getenv(StandbyModeEnvVar); v {
	case "", StandbyModeWarm:
	case StandbyModeHot:
		cfg.HotStandby = true
	default:
		return nil, fmt.Errorf("unknown %s value %q", StandbyModeEnvVar, v)
	}

	switch v := os.Getenv(StreamingModeEnvVar); v {
	case "", StreamingModeAsynchronous:
	case StreamingModeSynchronous:
		cfg.SynchronousStreaming = true
	default:
		return nil, fmt.Errorf("unknown %s value %q", StreamingModeEnvVar, v)
	}

	if v := os.Getenv(PortEnvVar); v != "" {
		port, err := strconv.ParseUint(v, 10, 16)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", PortEnvVar, err)
		}
		cfg.Port = uint16(port)
	}

	cfg.NodeName = os.Getenv(NodeNameEnvVar)
	if cfg.NodeName == "" {
		if hostName, err := os.Hostname(); err != nil {
			return nil, fmt.Errorf("getting hostname: %w", err)
		} else {
			cfg.NodeName = hostName
		}
	}

	return cfg, nil
}
