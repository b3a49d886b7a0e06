package pgisready

import (
	"bytes"
	"context"
	"errors"
)

// ExecuteIsReady_IsAccepting executes "pg_isready" and returns:
// - (true, nil) if it exits with code 0 (server accepting connections)
// - (false, nil) if it exits with code 1 or 2 (rejecting / no response)
// - (false, error) for any other case
func ExecuteIsReady_IsAccepting(ctx context.Context, host string, port uint16) (bool, error) {
	cmd := ExecCommandContext(ctx, Command, Args(host, port)...)

	var stderr bytes.Buffer
	cmd.SetStderr(&stderr)

	err := cmd.Run()
	if err == nil {
		return true, nil
	}

	if code := errToExitCode(err); code == 1 || code == 2 {
		return false, nil
	}

	return false, errors.Join(err, errors.New(stderr.String()))
}
