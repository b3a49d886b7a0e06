package pgctl

import (
	"bytes"
	"context"
	"errors"
)

// ExecuteStatus_IsRunning executes "pg_ctl status" and returns:
// - (true, nil) if it exits with code 0
// - (false, nil) if it exits with code 3 (no server running)
// - (false, error) for any other case
func ExecuteStatus_IsRunning(ctx context.Context, dataDir string) (bool, error) {
	cmd := ExecCommandContext(ctx, Command, StatusArgs(dataDir)...)

	var stderr bytes.Buffer
	cmd.SetStderr(&stderr)

	err := cmd.Run()
	if err == nil {
		return true, nil
	}

	if errToExitCode(err) == 3 {
		return false, nil
	}

	return false, errors.Join(err, errors.New(stderr.String()))
}
