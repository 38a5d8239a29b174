package merge

import (
	"strings"

	"github.com/hoshipkg/hoshi/pkg/errors"
)

// State is a merge run's position in its lifecycle.
type State int

const (
	StateResolving State = iota
	StateConfirmed
	StateDownloading
	StateExtracting
	StateRegistering
	StateDone
	StateAborted
)

var stateNames = [...]string{
	StateResolving:   "resolving",
	StateConfirmed:   "confirmed",
	StateDownloading: "downloading",
	StateExtracting:  "extracting",
	StateRegistering: "registering",
	StateDone:        "done",
	StateAborted:     "aborted",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Terminal reports whether no further transitions follow s.
func (s State) Terminal() bool { return s == StateDone || s == StateAborted }

// Policy decides what a failed artifact does to the rest of the run.
type Policy int

const (
	// AllOrNothing aborts the run on the first failed artifact and leaves
	// the registry untouched.
	AllOrNothing Policy = iota

	// PerArtifact registers every artifact that succeeded and reports the
	// rest as failures.
	PerArtifact
)

func (p Policy) String() string {
	if p == PerArtifact {
		return "per-artifact"
	}
	return "all-or-nothing"
}

// ParsePolicy parses "all-or-nothing" or "per-artifact". The empty string
// selects AllOrNothing.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all-or-nothing", "all":
		return AllOrNothing, nil
	case "per-artifact", "partial":
		return PerArtifact, nil
	default:
		return AllOrNothing, errors.New(errors.ErrCodeInvalidConfig, "unknown merge policy %q (want all-or-nothing or per-artifact)", s)
	}
}
