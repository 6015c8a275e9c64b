package errors

// WithCause is an error that has an underlying cause.
type WithCause interface{ Cause() error }

// WithHint is an error that has a suggestion for the user.
type WithHint interface{ Hint() string }

// Runtime is an error that occurred while running a command. Its message is
// meant for the user, and its cause for the logs.
type Runtime struct {
	msg   string
	cause error
	hint  string
}

// NewRuntimeError returns a new Runtime error.
func NewRuntimeError(msg string, cause error, hint string) Runtime {
	return Runtime{msg: msg, cause: cause, hint: hint}
}

func (e Runtime) Error() string {
	return e.msg
}

func (e Runtime) Cause() error {
	return e.cause
}

func (e Runtime) Hint() string {
	return e.hint
}

// Unwrap returns the cause, so that errors.Is and errors.As can match it.
func (e Runtime) Unwrap() error {
	return e.cause
}
