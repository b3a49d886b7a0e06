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

package bootstrap

import (
	"errors"
	"strings"
)

// RewindOutcome is the classification of a pg_rewind attempt. pg_rewind only
// reports why it could not proceed as free text, so the classification is a
// substring match over its combined output.
type RewindOutcome int

const (
	RewindSucceeded RewindOutcome = iota

	// RewindShutdownNotClean: the local engine was not stopped cleanly
	// before rewind ran. Expected on the first start after a container
	// restart; recovered by a throwaway start/stop cycle.
	RewindShutdownNotClean

	// RewindMissingWAL: the local timeline diverged beyond locally retained
	// WAL history.
	RewindMissingWAL

	// RewindNoCommonAncestor: the timelines share no history pg_rewind can
	// locate.
	RewindNoCommonAncestor

	// RewindChecksumsDisabled: the local engine was initialized without the
	// hint tracking rewind requires.
	RewindChecksumsDisabled

	// RewindUnknownFailure: no known signature matched.
	RewindUnknownFailure
)

func (o RewindOutcome) String() string {
	switch o {
	case RewindSucceeded:
		return "succeeded"
	case RewindShutdownNotClean:
		return "shutdown-not-clean"
	case RewindMissingWAL:
		return "missing-wal"
	case RewindNoCommonAncestor:
		return "no-common-ancestor"
	case RewindChecksumsDisabled:
		return "checksums-disabled"
	default:
		return "unknown-failure"
	}
}

// Exact pg_rewind diagnostics, case-sensitive. Matching is ordered: when the
// output happens to contain more than one signature, the first listed wins.
const (
	msgShutdownNotClean  = "target server must be shut down cleanly"
	msgMissingWAL        = "could not find previous WAL record"
	msgNoCommonAncestor  = "could not find common ancestor"
	msgChecksumsDisabled = "server needs to use either data checksums"
)

var rewindSignatures = []struct {
	substring string
	outcome   RewindOutcome
}{
	{msgShutdownNotClean, RewindShutdownNotClean},
	{msgMissingWAL, RewindMissingWAL},
	{msgNoCommonAncestor, RewindNoCommonAncestor},
	{msgChecksumsDisabled, RewindChecksumsDisabled},
}

// ClassifyRewindFailure maps pg_rewind output to an outcome. Pure function,
// deterministic, first match wins.
func ClassifyRewindFailure(output string) RewindOutcome {
	for _, sig := range rewindSignatures {
		if strings.Contains(output, sig.substring) {
			return sig.outcome
		}
	}
	return RewindUnknownFailure
}

// outputError is the shape of a tool failure that carries diagnostic output;
// matches the CommandError of the pg tool packages without importing them.
type outputError interface {
	error
	Output() string
}

// classifyRewindError extracts the diagnostic output from a rewind failure
// and classifies it. Failures that carry no output (e.g. the binary is
// missing) classify by the error text itself.
func classifyRewindError(err error) (RewindOutcome, string) {
	var cmdErr outputError
	if errors.As(err, &cmdErr) {
		return ClassifyRewindFailure(cmdErr.Output()), cmdErr.Output()
	}
	return ClassifyRewindFailure(err.Error()), err.Error()
}
