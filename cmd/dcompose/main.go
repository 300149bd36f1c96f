package main

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/artpar/dcompose/internal/core/compose"
)

// Version information (set by build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

// =============================================================================
// Exit Codes
// =============================================================================

const (
	ExitSuccess     = 0
	ExitConfigError = 1
	ExitParseError  = 2
	ExitIOError     = 3
	ExitCheckFailed = 4
	ExitUsageError  = 64
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	a := &app{stdout: stdout, stderr: stderr}
	root := newRootCmd(a)
	root.SetArgs(args)

	if err := root.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errCheckFailed) {
			a.printError(err)
		}
		return exitCode(err)
	}
	return ExitSuccess
}

// =============================================================================
// Error Mapping
// =============================================================================

// ConfigError is returned when the CLI configuration cannot be loaded.
type ConfigError struct {
	Err error
}

func (e *ConfigError) Error() string {
	return "configuration error: " + e.Err.Error()
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// errCheckFailed reports that check found at least one invalid file. The
// per-file results have already been printed.
var errCheckFailed = errors.New("one or more files failed the check")

func exitCode(err error) int {
	var (
		configErr *ConfigError
		ioErr     *compose.IOError
	)
	switch {
	case err == nil:
		return ExitSuccess
	case errors.As(err, &configErr):
		return ExitConfigError
	case errors.Is(err, errCheckFailed):
		return ExitCheckFailed
	case errors.As(err, &ioErr) && ioErr.Op != "parse":
		return ExitIOError
	case isComposeError(err):
		return ExitParseError
	default:
		return ExitUsageError
	}
}

func isComposeError(err error) bool {
	for _, target := range []error{
		compose.ErrEmptyInput,
		compose.ErrInvalidYAML,
		compose.ErrInvalidValue,
		compose.ErrValidation,
		compose.ErrUnexpectedShape,
		compose.ErrUnresolved,
		compose.ErrNoScalarForm,
		compose.ErrUnsupportedVersion,
		compose.ErrCircularDependency,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
