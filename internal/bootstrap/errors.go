package bootstrap

import "fmt"

// UnrecoverableError is a synchronization failure with no defined local
// recovery. It must surface to the operator via process exit; attempting a
// destructive resync here could mask a real operational problem.
type UnrecoverableError struct {
	Stage  string
	Output string
}

func (e *UnrecoverableError) Error() string {
	return fmt.Sprintf("%s failed with no recognized recovery: %s", e.Stage, e.Output)
}
