package cli

import (
	"context"
	"errors"

	lkerrors "github.com/matzehuels/layerkit/pkg/errors"
)

// Exit statuses returned by [ExitCode].
const (
	ExitOK          = 0
	ExitFailure     = 1
	ExitUsage       = 2 // invalid input, options or files
	ExitUnsupported = 3 // the graph cannot be laid out with the chosen options
	ExitCanceled    = 130
)

// ExitCode maps an error returned by a command to the process exit status.
// Canceled runs use the shell convention for SIGINT.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	if errors.Is(err, context.Canceled) {
		return ExitCanceled
	}
	switch lkerrors.GetCode(err) {
	case lkerrors.ErrCodeCanceled:
		return ExitCanceled
	case lkerrors.ErrCodeInvalidInput, lkerrors.ErrCodeInvalidConfig, lkerrors.ErrCodeInvalidFormat,
		lkerrors.ErrCodeInvalidPath, lkerrors.ErrCodeFileNotFound, lkerrors.ErrCodeNotFound:
		return ExitUsage
	case lkerrors.ErrCodeUnsupportedGraph:
		return ExitUnsupported
	default:
		return ExitFailure
	}
}

// ErrorMessage returns the one-line message printed for a failed command.
// Coded errors show their code and message without the cause chain unless
// verbose is set.
func ErrorMessage(err error, verbose bool) string {
	code := lkerrors.GetCode(err)
	if code == "" || verbose {
		return err.Error()
	}
	return string(code) + ": " + lkerrors.UserMessage(err)
}
