package bootstrap

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	outShutdownNotClean  = "pg_rewind: fatal: target server must be shut down cleanly\n"
	outMissingWAL        = "pg_rewind: fatal: could not find previous WAL record at 0/3000028\n"
	outNoCommonAncestor  = "pg_rewind: fatal: could not find common ancestor of the source and target cluster's timelines\n"
	outChecksumsDisabled = "pg_rewind: fatal: target server needs to use either data checksums or \"wal_log_hints = on\"\n"
	outUnknown           = "pg_rewind: fatal: could not connect to server: Connection refused\n"
)

func TestSynchronizeAbsentDataDirTakesBaseBackup(t *testing.T) {
	h := newTestHarness(t)

	require.NoError(t, h.ctrl.synchronize(context.Background()))

	assert.Equal(t, []string{"basebackup"}, h.log.ops)

	exists, err := afero.DirExists(h.fs, testDataDir)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestSynchronizeVersionMarkerAloneIsNotEnough(t *testing.T) {
	h := newTestHarness(t)
	require.NoError(t, afero.WriteFile(h.fs, filepath.Join(testDataDir, versionMarkerName), []byte("11\n"), 0o600))

	require.NoError(t, h.ctrl.synchronize(context.Background()))

	assert.Equal(t, []string{"basebackup"}, h.log.ops)
}

func TestSynchronizePresentDataDirAttemptsRewindFirst(t *testing.T) {
	h := newTestHarness(t)
	seedDataDir(t, h.fs)

	require.NoError(t, h.ctrl.synchronize(context.Background()))

	assert.Equal(t, []string{"rewind"}, h.log.ops)
}

func TestSynchronizeShutdownNotCleanEnforcesCleanShutdownBeforeRetry(t *testing.T) {
	h := newTestHarness(t)
	seedDataDir(t, h.fs)
	h.tools.rewindErrs = []error{&fakeRewindError{output: outShutdownNotClean}}

	require.NoError(t, h.ctrl.synchronize(context.Background()))

	// ordering matters: the retry happens only after the engine was
	// confirmed accepting connections and then cleanly stopped
	assert.Equal(t, []string{
		"rewind",
		"materialize",
		"engine.start",
		"engine.ready",
		"engine.stop",
		"rewind",
	}, h.log.ops)
}

func TestSynchronizeCleanShutdownSkipsStartWhenEngineAlreadyRunning(t *testing.T) {
	h := newTestHarness(t)
	seedDataDir(t, h.fs)
	h.tools.rewindErrs = []error{&fakeRewindError{output: outShutdownNotClean}}
	h.engine.running = true

	require.NoError(t, h.ctrl.synchronize(context.Background()))

	assert.Equal(t, 1, h.engine.statusCalls)
	assert.Equal(t, []string{
		"rewind",
		"materialize",
		"engine.ready",
		"engine.stop",
		"rewind",
	}, h.log.ops)
}

func TestSynchronizeCleanShutdownWaitsForEngineReadiness(t *testing.T) {
	h := newTestHarness(t)
	seedDataDir(t, h.fs)
	h.tools.rewindErrs = []error{&fakeRewindError{output: outShutdownNotClean}}
	h.engine.readyAfter = 3

	require.NoError(t, h.ctrl.synchronize(context.Background()))

	assert.Equal(t, 4, h.engine.readyCalls)
	assert.Equal(t, "engine.stop", h.log.ops[len(h.log.ops)-2])
}

func TestSynchronizeEscalatesToBaseBackup(t *testing.T) {
	tests := []struct {
		name   string
		output string
	}{
		{"missing WAL", outMissingWAL},
		{"no common ancestor", outNoCommonAncestor},
		{"checksums disabled", outChecksumsDisabled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHarness(t)
			seedDataDir(t, h.fs)
			h.tools.rewindErrs = []error{&fakeRewindError{output: tt.output}}

			require.NoError(t, h.ctrl.synchronize(context.Background()))

			assert.Equal(t, []string{"rewind", "basebackup"}, h.log.ops)

			// escalation wipes the directory before the copy
			exists, err := afero.Exists(h.fs, filepath.Join(testDataDir, versionMarkerName))
			require.NoError(t, err)
			assert.False(t, exists)
		})
	}
}

func TestSynchronizeRetryFailureEscalates(t *testing.T) {
	h := newTestHarness(t)
	seedDataDir(t, h.fs)
	h.tools.rewindErrs = []error{
		&fakeRewindError{output: outShutdownNotClean},
		&fakeRewindError{output: outMissingWAL},
	}

	require.NoError(t, h.ctrl.synchronize(context.Background()))

	assert.Equal(t, []string{
		"rewind",
		"materialize",
		"engine.start",
		"engine.ready",
		"engine.stop",
		"rewind",
		"basebackup",
	}, h.log.ops)
}

func TestSynchronizeRepeatedShutdownNotCleanIsUnrecoverable(t *testing.T) {
	h := newTestHarness(t)
	seedDataDir(t, h.fs)
	h.tools.rewindErrs = []error{
		&fakeRewindError{output: outShutdownNotClean},
		&fakeRewindError{output: outShutdownNotClean},
	}

	err := h.ctrl.synchronize(context.Background())

	var unrecoverable *UnrecoverableError
	require.ErrorAs(t, err, &unrecoverable)
	assert.NotContains(t, h.log.ops, "basebackup")
}

func TestSynchronizeUnknownFailureIsUnrecoverable(t *testing.T) {
	h := newTestHarness(t)
	seedDataDir(t, h.fs)
	h.tools.rewindErrs = []error{&fakeRewindError{output: outUnknown}}

	err := h.ctrl.synchronize(context.Background())

	var unrecoverable *UnrecoverableError
	require.ErrorAs(t, err, &unrecoverable)
	assert.Contains(t, unrecoverable.Output, "could not connect to server")

	// an unknown failure mode must never trigger a destructive resync
	assert.Equal(t, []string{"rewind"}, h.log.ops)

	exists, err := afero.Exists(h.fs, filepath.Join(testDataDir, versionMarkerName))
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestSynchronizeBaseBackupFailureIsFatal(t *testing.T) {
	h := newTestHarness(t)
	h.tools.baseBackupErr = errors.New("could not connect to server")

	err := h.ctrl.synchronize(context.Background())

	require.Error(t, err)
	assert.Equal(t, []string{"basebackup"}, h.log.ops)
}

func TestSynchronizeTwiceLeavesDataDirUntouched(t *testing.T) {
	h := newTestHarness(t)
	seedDataDir(t, h.fs)

	require.NoError(t, h.ctrl.synchronize(context.Background()))
	require.NoError(t, h.ctrl.synchronize(context.Background()))

	assert.Equal(t, []string{"rewind", "rewind"}, h.log.ops)

	content, err := afero.ReadFile(h.fs, filepath.Join(testDataDir, versionMarkerName))
	require.NoError(t, err)
	assert.Equal(t, "11\n", string(content))
}
