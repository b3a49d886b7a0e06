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
	"os"
	"path/filepath"
	"strings"
)

const (
	managedBlockBegin = "# >>> replication settings managed by replica-bootstrap"
	managedBlockEnd   = "# <<< replication settings managed by replica-bootstrap"
)

// Materialize writes recovery.conf and the managed block of postgresql.conf
// into dataDir. Files are written to a temporary path first and moved into
// place, so the engine never observes a partially written config. Safe to
// call repeatedly; output depends only on o.
func Materialize(dataDir string, o *Options) error {
	if err := writeFileAtomic(
		filepath.Join(dataDir, RecoveryConfName),
		o.renderRecoveryConf(),
	); err != nil {
		return fmt.Errorf("materializing %s: %w", RecoveryConfName, err)
	}

	confPath := filepath.Join(dataDir, PostgresConfName)

	base, err := afs.ReadFile(confPath)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("reading %s: %w", PostgresConfName, err)
	}

	content := stripManagedBlock(string(base))
	if content != "" && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	content += o.renderManagedBlock()

	if err := writeFileAtomic(confPath, content); err != nil {
		return fmt.Errorf("materializing %s: %w", PostgresConfName, err)
	}

	return nil
}

// stripManagedBlock drops a previously materialized block so repeated runs
// do not accumulate copies.
func stripManagedBlock(content string) string {
	begin := strings.Index(content, managedBlockBegin)
	if begin < 0 {
		return content
	}

	end := strings.Index(content, managedBlockEnd)
	if end < 0 {
		// begin marker without end marker, cut to the end of the file
		return content[:begin]
	}

	rest := content[end+len(managedBlockEnd):]
	rest = strings.TrimPrefix(rest, "\n")

	return content[:begin] + rest
}

func writeFileAtomic(path string, content string) error {
	tmpPath := path + ".tmp"

	if err := afs.WriteFile(tmpPath, []byte(content), 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", tmpPath, err)
	}

	if err := afs.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("renaming %s: %w", tmpPath, err)
	}

	return nil
}
