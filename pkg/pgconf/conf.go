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

package pgconf

import (
	"fmt"
	"strings"
)

const (
	RecoveryConfName = "recovery.conf"
	PostgresConfName = "postgresql.conf"

	// WAL retained on the primary for this replica, sized to tolerate brief
	// network partitions without forcing a full resync.
	WalKeepSegments = 250

	DefaultArchiveDir = "/var/lib/postgresql/archive"
)

// Options is the full set of replication parameters materialized into the
// data directory. Built once from the process environment and never mutated.
type Options struct {
	PrimaryHost         string
	PrimaryPort         uint16
	ReplicationUser     string
	ReplicationPassword string

	// NodeName identifies this replica to the primary (application_name).
	NodeName string

	// HotStandby allows read-only queries while WAL is being replayed.
	HotStandby bool

	// SynchronousStreaming makes the primary wait for this replica to
	// acknowledge receipt (not durability) before committing.
	SynchronousStreaming bool

	// TriggerFile is the promotion marker; the engine promotes itself when
	// the orchestrator drops this file, the same path the bootstrap
	// controller checks before replica startup.
	TriggerFile string

	ArchiveDir string
}

// PrimaryConnInfo is the conninfo string the engine uses for streaming
// replication from the primary.
func (o *Options) PrimaryConnInfo() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s application_name=%s",
		o.PrimaryHost, o.PrimaryPort, o.ReplicationUser, o.ReplicationPassword, o.NodeName,
	)
}

func (o *Options) archiveDir() string {
	if o.ArchiveDir == "" {
		return DefaultArchiveDir
	}
	return o.ArchiveDir
}

func (o *Options) renderRecoveryConf() string {
	sb := &strings.Builder{}

	writeParameter(sb, "standby_mode", "'on'")
	writeParameter(sb, "primary_conninfo", "'"+o.PrimaryConnInfo()+"'")
	writeParameter(sb, "recovery_target_timeline", "'latest'")
	writeParameter(sb, "trigger_file", "'"+o.TriggerFile+"'")
	writeParameter(sb, "archive_cleanup_command", fmt.Sprintf("'pg_archivecleanup %s %%r'", o.archiveDir()))

	return sb.String()
}

func (o *Options) renderManagedBlock() string {
	sb := &strings.Builder{}

	sb.WriteString(managedBlockBegin)
	sb.WriteString("\n")

	writeParameter(sb, "wal_keep_segments", fmt.Sprintf("%d", WalKeepSegments))
	writeParameter(sb, "hot_standby", onOff(o.HotStandby))
	if o.SynchronousStreaming {
		writeParameter(sb, "synchronous_commit", "remote_write")
		writeParameter(sb, "synchronous_standby_names", "'*'")
	} else {
		writeParameter(sb, "synchronous_commit", "local")
	}

	sb.WriteString(managedBlockEnd)
	sb.WriteString("\n")

	return sb.String()
}

func writeParameter(sb *strings.Builder, key string, value string) {
	sb.WriteString(key)
	sb.WriteString(" = ")
	sb.WriteString(value)
	sb.WriteString("\n")
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}
