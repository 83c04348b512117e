package policy

// VerdictKind classifies a candidate shell command.
type VerdictKind string

const (
	// VerdictSafe commands execute without further checks.
	VerdictSafe VerdictKind = "safe"
	// VerdictRequiresConfirmation commands need an explicit user approval
	// before execution.
	VerdictRequiresConfirmation VerdictKind = "requires_confirmation"
	// VerdictBlocked commands are never executed.
	VerdictBlocked VerdictKind = "blocked"
)

// Verdict is the result of validating one command string. Reason is set for
// RequiresConfirmation and Blocked, phrased for direct display to the user.
type Verdict struct {
	Kind   VerdictKind
	Reason string
}

func safe() Verdict {
	return Verdict{Kind: VerdictSafe}
}

func confirm(reason string) Verdict {
	return Verdict{Kind: VerdictRequiresConfirmation, Reason: reason}
}

func blocked(reason string) Verdict {
	return Verdict{Kind: VerdictBlocked, Reason: reason}
}
