package bootstrap

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/alekitto/postgres-docker/internal/config"
)

const (
	testDataDir     = "/var/lib/postgresql/data"
	testTriggerFile = "/tmp/pg-promote-trigger"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func withTestFS(t *testing.T) afero.Fs {
	t.Helper()
	mem := afero.NewMemMapFs()
	t.Cleanup(SetFSForTests(mem))
	return mem
}

func testOptions() *config.Options {
	return &config.Options{
		PrimaryHost:        "pg-primary",
		DataDir:            testDataDir,
		Port:               5432,
		TriggerFile:        testTriggerFile,
		PrimaryEntrypoint:  "/usr/local/bin/primary-start.sh",
		PollInterval:       time.Millisecond,
		EngineWaitAttempts: 5,
	}
}

// seedDataDir makes the memfs data directory look like an initialized
// cluster: version marker plus control file.
func seedDataDir(t *testing.T, fs afero.Fs) {
	t.Helper()
	require.NoError(t, afero.WriteFile(fs, filepath.Join(testDataDir, versionMarkerName), []byte("11\n"), 0o600))
	require.NoError(t, afero.WriteFile(fs, filepath.Join(testDataDir, controlFileName), []byte{0x01}, 0o600))
}

// opLog records the order of operations across all fakes; tests assert on
// sequences, not just on counts.
type opLog struct {
	ops []string
}

func (l *opLog) add(op string) { l.ops = append(l.ops, op) }

type fakeProbe struct {
	// acceptAfter is the number of liveness checks that report not-accepting
	// before the probe starts succeeding.
	acceptAfter int
	calls       int

	// queryFailures is the number of query round-trips that fail after the
	// liveness check already passes.
	queryFailures int
	queryCalls    int

	// onCheck runs before each liveness check result is produced; used to
	// drop the promotion trigger mid-loop.
	onCheck func(call int)
}

func (p *fakeProbe) IsAccepting(context.Context) (bool, error) {
	p.calls++
	if p.onCheck != nil {
		p.onCheck(p.calls)
	}
	return p.calls > p.acceptAfter, nil
}

func (p *fakeProbe) QueryRoundTrip(context.Context) error {
	p.queryCalls++
	if p.queryCalls <= p.queryFailures {
		return errors.New("FATAL: the database system is starting up")
	}
	return nil
}

type fakeEngine struct {
	log *opLog

	// running simulates a postmaster left behind by a previous process;
	// the clean-shutdown path must not start a second one over it.
	running     bool
	statusCalls int

	// readyAfter is the number of readiness checks that report not-accepting
	// after a start.
	readyAfter int
	readyCalls int

	startErr error
	stopErr  error
}

func (e *fakeEngine) Start(context.Context) error {
	e.log.add("engine.start")
	return e.startErr
}

func (e *fakeEngine) IsRunning(context.Context) (bool, error) {
	e.statusCalls++
	return e.running, nil
}

func (e *fakeEngine) Stop(context.Context) error {
	e.log.add("engine.stop")
	return e.stopErr
}

func (e *fakeEngine) IsAccepting(context.Context) (bool, error) {
	e.readyCalls++
	if e.readyCalls <= e.readyAfter {
		return false, nil
	}
	e.log.add("engine.ready")
	return true, nil
}

type fakeTools struct {
	log *opLog

	// rewindErrs are returned in order, one per attempt; attempts beyond the
	// slice succeed.
	rewindErrs  []error
	rewindCalls int

	baseBackupErr error
}

func (f *fakeTools) Rewind(_ context.Context, _ string) error {
	f.log.add("rewind")
	i := f.rewindCalls
	f.rewindCalls++
	if i < len(f.rewindErrs) {
		return f.rewindErrs[i]
	}
	return nil
}

func (f *fakeTools) BaseBackup(_ context.Context, _ string) error {
	f.log.add("basebackup")
	return f.baseBackupErr
}

type fakeConf struct {
	log *opLog
}

func (f *fakeConf) Materialize(string) error {
	f.log.add("materialize")
	return nil
}

// fakeRewindError mimics the CommandError shape of the pgrewind package.
type fakeRewindError struct {
	output string
}

func (e *fakeRewindError) Error() string  { return "exit status 1" }
func (e *fakeRewindError) Output() string { return e.output }

type testHarness struct {
	fs     afero.Fs
	log    *opLog
	probe  *fakeProbe
	engine *fakeEngine
	tools  *fakeTools
	conf   *fakeConf
	ctrl   *Controller
}

func newTestHarness(t *testing.T) *testHarness {
	t.Helper()

	h := &testHarness{
		fs:  withTestFS(t),
		log: &opLog{},
	}
	h.probe = &fakeProbe{}
	h.engine = &fakeEngine{log: h.log}
	h.tools = &fakeTools{log: h.log}
	h.conf = &fakeConf{log: h.log}
	h.ctrl = NewController(newTestLogger(), testOptions(), h.probe, h.engine, h.tools, h.conf)

	return h
}
