package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/itsatony/go-uritemplate"
	"github.com/spf13/cobra"
)

// validateConfig holds parsed validate command configuration
type validateConfig struct {
	templatePath string
}

// validationOutput represents JSON output for validation
type validationOutput struct {
	Valid       bool                         `json:"valid"`
	Error       string                       `json:"error,omitempty"`
	Kind        string                       `json:"kind,omitempty"`
	Offset      *int                         `json:"offset,omitempty"`
	Expressions []uritemplate.ExpressionInfo `json:"expressions,omitempty"`
	Variables   []string                     `json:"variables,omitempty"`
}

func newValidateCmd(state *cliState) *cobra.Command {
	cfg := &validateConfig{}
	cmd := &cobra.Command{
		Use:     CmdNameValidate,
		Short:   HelpValidateShort,
		Example: HelpValidateExample,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runValidate(cmd, cfg, state.config.Format)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&cfg.templatePath, FlagTemplate, FlagTemplateShort, "", UsageTemplate)
	flags.StringP(FlagFormat, FlagFormatShort, FlagDefaultFormat, UsageFormat)
	return cmd
}

func runValidate(cmd *cobra.Command, cfg *validateConfig, format string) error {
	if cfg.templatePath == "" {
		return usageError(ErrMsgMissingTemplate, nil)
	}
	if err := validateFormat(format); err != nil {
		return err
	}

	source, err := readTemplate(cfg.templatePath, cmd.InOrStdin())
	if err != nil {
		return inputError(ErrMsgReadFileFailed, err)
	}

	tmpl, parseErr := uritemplate.Parse(source)
	output := validationOutput{Valid: parseErr == nil}
	if parseErr != nil {
		output.Error = parseErr.Error()
		output.Kind = string(uritemplate.KindOf(parseErr))
		if offset := uritemplate.ErrorOffset(parseErr); offset >= 0 {
			output.Offset = &offset
		}
	} else {
		output.Expressions = tmpl.Expressions()
		output.Variables = tmpl.VariableNames()
	}

	stdout := cmd.OutOrStdout()
	if format == OutputFormatJSON {
		err = outputValidationJSON(output, stdout)
	} else {
		outputValidationText(output, stdout)
	}
	if err != nil {
		return err
	}

	if parseErr != nil {
		return runError(ErrMsgParseTemplateFailed, parseErr)
	}
	return nil
}

func outputValidationText(output validationOutput, stdout io.Writer) {
	if !output.Valid {
		// the error itself is reported on stderr by run
		return
	}

	fmt.Fprintln(stdout, ValidationTextSuccess)
	if len(output.Expressions) > 0 {
		fmt.Fprintln(stdout, ValidationTextExprHeader)
		for _, expr := range output.Expressions {
			fmt.Fprintf(stdout, ValidationTextExprFormat+FmtNewline, expr.Source, expr.Style, expr.Offset)
		}
	}
	if len(output.Variables) == 0 {
		fmt.Fprintln(stdout, ValidationTextNoVars)
		return
	}
	fmt.Fprintf(stdout, ValidationTextVarsFormat+FmtNewline, strings.Join(output.Variables, ", "))
}

func outputValidationJSON(output validationOutput, stdout io.Writer) error {
	jsonBytes, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		return runError(ErrMsgJSONMarshalFailed, err)
	}
	fmt.Fprintln(stdout, string(jsonBytes))
	return nil
}
