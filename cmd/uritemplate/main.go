package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	exitCode := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	os.Exit(exitCode)
}

// cliError carries the exit code a command failure maps to
type cliError struct {
	code    int
	message string
	cause   error
}

func (e *cliError) Error() string {
	if e.cause == nil {
		return e.message
	}
	return e.message + ": " + e.cause.Error()
}

func (e *cliError) Unwrap() error {
	return e.cause
}

func usageError(message string, cause error) error {
	return &cliError{code: ExitCodeUsageError, message: message, cause: cause}
}

func inputError(message string, cause error) error {
	return &cliError{code: ExitCodeInputError, message: message, cause: cause}
}

func runError(message string, cause error) error {
	return &cliError{code: ExitCodeError, message: message, cause: cause}
}

// run is the main entry point for the CLI, separated for testing
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	root := newRootCmd()
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.Execute()
	if err == nil {
		return ExitCodeSuccess
	}

	fmt.Fprintf(stderr, FmtError, err)

	var ce *cliError
	if errors.As(err, &ce) {
		return ce.code
	}
	// anything cobra rejects before a command runs is a usage problem
	return ExitCodeUsageError
}

func newRootCmd() *cobra.Command {
	state := newCLIState()
	root := &cobra.Command{
		Use:           CmdNameRoot,
		Short:         HelpRootShort,
		Long:          HelpRootLong,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return state.load(cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError(err.Error(), nil)
	})

	flags := root.PersistentFlags()
	flags.StringVarP(&state.configPath, FlagConfig, FlagConfigShort, "", UsageConfig)
	flags.String(FlagStorageDriver, "", UsageStorageDriver)
	flags.String(FlagStorageDSN, "", UsageStorageDSN)
	state.bindFlag(ConfigKeyStorageDriver, flags.Lookup(FlagStorageDriver))
	state.bindFlag(ConfigKeyStorageDSN, flags.Lookup(FlagStorageDSN))

	root.AddCommand(
		newExpandCmd(state),
		newValidateCmd(state),
		newVersionCmd(state),
		newPublishCmd(state),
		newListCmd(state),
	)
	return root
}

// validateFormat checks a --format value
func validateFormat(format string) error {
	if format != OutputFormatText && format != OutputFormatJSON {
		return usageError(ErrMsgInvalidFormat, errors.New(format))
	}
	return nil
}
