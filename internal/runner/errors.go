package runner

import "fmt"

// LaunchError is returned when a child process could not be started at all
// (binary missing, permission denied to spawn). A non-zero exit is not a
// LaunchError; it is reported verbatim in the Result.
type LaunchError struct {
	Cmd   string
	Cause error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("failed to launch %q: %v", e.Cmd, e.Cause)
}

func (e *LaunchError) Unwrap() error {
	return e.Cause
}
