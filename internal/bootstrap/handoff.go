package bootstrap

import (
	"fmt"
	"os"
	"os/exec"

	"golang.org/x/sys/unix"
)

// EngineCommand is the server binary the controller execs into after
// synchronization; resolved via PATH.
var EngineCommand = "postgres"

// overridable for testing purposes
var execve = unix.Exec
var lookPath = exec.LookPath

// execReplica replaces the process image with the engine. Terminal
// transition: there is no supervision after this point, restart-on-crash
// belongs to the surrounding orchestration.
func (c *Controller) execReplica() error {
	path, err := lookPath(EngineCommand)
	if err != nil {
		return fmt.Errorf("locating %s: %w", EngineCommand, err)
	}

	argv := []string{EngineCommand, "-D", c.cfg.DataDir}
	if err := execve(path, argv, os.Environ()); err != nil {
		return fmt.Errorf("exec %s: %w", path, err)
	}
	return nil
}

// execPrimary abandons replica startup and transfers control to the
// primary-role startup procedure.
func (c *Controller) execPrimary() error {
	argv := []string{c.cfg.PrimaryEntrypoint}
	if err := execve(c.cfg.PrimaryEntrypoint, argv, os.Environ()); err != nil {
		return fmt.Errorf("exec %s: %w", c.cfg.PrimaryEntrypoint, err)
	}
	return nil
}
