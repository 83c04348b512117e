package dispatch

import "github.com/archan-project/archan/internal/runner"

// Stage identifies where a dispatch cycle currently is. Stages are reported
// in order through the progress callback so the caller can render activity.
type Stage string

const (
	StageAwaitingModelReply   Stage = "awaiting_model_reply"
	StageParsing              Stage = "parsing"
	StageValidating           Stage = "validating"
	StageAwaitingConfirmation Stage = "awaiting_confirmation"
	StageExecuting            Stage = "executing"
	StageSummarizing          Stage = "summarizing"
)

// OutcomeKind classifies how a dispatch cycle ended.
type OutcomeKind string

const (
	// OutcomePlainText means the model replied conversationally.
	OutcomePlainText OutcomeKind = "plain_text"
	// OutcomeExecuted means a tool ran and its result was surfaced.
	OutcomeExecuted OutcomeKind = "executed"
	// OutcomeRejected means the cycle stopped before or instead of
	// execution: policy block, user denial, or an unreachable model.
	OutcomeRejected OutcomeKind = "rejected"
	// OutcomeCancelled means the caller aborted the cycle.
	OutcomeCancelled OutcomeKind = "cancelled"
)

// Outcome is the final product of one dispatch cycle.
type Outcome struct {
	Kind OutcomeKind

	// Text is what the user should see: the assistant reply for plain
	// text, the summary for an executed tool, or the rejection message.
	Text string

	// Result carries the execution details of a shell command, when one
	// ran. Nil otherwise.
	Result *runner.Result

	// Err holds the typed reason for Rejected and Cancelled outcomes.
	Err error
}
