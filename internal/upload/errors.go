package upload

import "fmt"

// CommandError reports a remote pipeline step whose output indicated
// failure. The captured streams are kept verbatim so operators can diagnose
// the remote tool's behavior without re-running it.
type CommandError struct {
	// Step is a short description of the pipeline step that failed.
	Step string
	// Stdout and Stderr are the remote command's output streams, unmodified.
	Stdout string
	Stderr string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: remote command failed\nstdout: %s\nstderr: %s", e.Step, e.Stdout, e.Stderr)
}
