package parser

// Kind discriminates the parse result.
type Kind string

const (
	KindPlainText Kind = "plain_text"
	KindToolCall  Kind = "tool_call"
)

// ToolName identifies a recognized tool. The set is closed: no code path may
// construct or execute on an unrecognized name.
type ToolName string

const (
	ToolShell  ToolName = "shell"
	ToolSearch ToolName = "search"
)

// ShellCall asks for a shell command to be executed.
type ShellCall struct {
	Command     string `mapstructure:"command"`
	Explanation string `mapstructure:"explanation"`
}

// SearchCall asks for a web search.
type SearchCall struct {
	Query string `mapstructure:"query"`
}

// ToolCall is a tagged variant over ShellCall and SearchCall. Exactly one of
// Shell and Search is non-nil, matching Tool.
type ToolCall struct {
	Tool   ToolName
	Shell  *ShellCall
	Search *SearchCall
}

// Result classifies one model reply. For KindPlainText, Text carries the raw
// reply unchanged; for KindToolCall, Call is the decoded invocation.
type Result struct {
	Kind Kind
	Text string
	Call *ToolCall
}
