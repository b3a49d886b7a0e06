package postgres

import (
	"context"

	"github.com/alekitto/postgres-docker/pkg/pgctl"
	"github.com/alekitto/postgres-docker/pkg/pgisready"
)

// Engine drives the local server through pg_ctl. Start backgrounds
// immediately; Stop performs a fast shutdown and blocks until confirmed.
type Engine struct {
	DataDir string
	Port    uint16
}

func (e *Engine) Start(ctx context.Context) error {
	if err := pgctl.ExecuteStart(ctx, e.DataDir); err != nil {
		return err
	}
	return nil
}

func (e *Engine) Stop(ctx context.Context) error {
	if err := pgctl.ExecuteStop(ctx, e.DataDir); err != nil {
		return err
	}
	return nil
}

func (e *Engine) IsRunning(ctx context.Context) (bool, error) {
	return pgctl.ExecuteStatus_IsRunning(ctx, e.DataDir)
}

func (e *Engine) IsAccepting(ctx context.Context) (bool, error) {
	return pgisready.ExecuteIsReady_IsAccepting(ctx, "localhost", e.Port)
}
