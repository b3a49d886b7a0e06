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
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/alekitto/postgres-docker/pkg/pgisready"
)

// Probe checks a remote server, first for liveness (pg_isready), then with a
// trivial read executed over a real connection.
type Probe struct {
	Host     string
	Port     uint16
	User     string
	Password string
}

func (p *Probe) IsAccepting(ctx context.Context) (bool, error) {
	return pgisready.ExecuteIsReady_IsAccepting(ctx, p.Host, p.Port)
}

func (p *Probe) QueryRoundTrip(ctx context.Context) error {
	db, err := sql.Open("postgres", p.dsn())
	if err != nil {
		return fmt.Errorf("opening connection to %s: %w", p.Host, err)
	}
	defer db.Close()

	var one int
	if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("querying %s: %w", p.Host, err)
	}

	return nil
}

func (p *Probe) dsn() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=postgres sslmode=disable connect_timeout=2",
		p.Host, p.Port, p.User, p.Password,
	)
}
