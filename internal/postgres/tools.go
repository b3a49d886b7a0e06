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

package postgres

import (
	"context"
	"fmt"

	"github.com/alekitto/postgres-docker/pkg/pgbasebackup"
	"github.com/alekitto/postgres-docker/pkg/pgrewind"
)

// SyncTools runs the two resynchronization tools against the primary.
// pg_basebackup authenticates as the replication role; pg_rewind connects as
// the superuser since it reads source files over regular connections.
type SyncTools struct {
	Host              string
	Port              uint16
	ReplicationUser   string
	SuperUser         string
	SuperUserPassword string
}

func (t *SyncTools) BaseBackup(ctx context.Context, dataDir string) error {
	if err := pgbasebackup.ExecuteBaseBackup(
		ctx, t.Host, t.Port, t.ReplicationUser, t.SuperUserPassword, dataDir,
	); err != nil {
		return err
	}
	return nil
}

func (t *SyncTools) Rewind(ctx context.Context, dataDir string) error {
	if err := pgrewind.ExecuteRewind(ctx, dataDir, t.sourceConnInfo()); err != nil {
		return err
	}
	return nil
}

func (t *SyncTools) sourceConnInfo() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=postgres",
		t.Host, t.Port, t.SuperUser, t.SuperUserPassword,
	)
}
