package main

import (
	"errors"
	"fmt"

	"github.com/itsatony/go-uritemplate"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// expandConfig holds parsed expand command configuration
type expandConfig struct {
	templatePath string
	name         string
	version      int
	vars         string
	varsFile     string
	outputPath   string
}

func newExpandCmd(state *cliState) *cobra.Command {
	cfg := &expandConfig{}
	cmd := &cobra.Command{
		Use:     CmdNameExpand,
		Short:   HelpExpandShort,
		Example: HelpExpandExample,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runExpand(cmd, state, cfg)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&cfg.templatePath, FlagTemplate, FlagTemplateShort, "", UsageTemplate)
	flags.StringVarP(&cfg.name, FlagName, FlagNameShort, "", UsageName)
	flags.IntVar(&cfg.version, FlagTemplateVersion, 0, UsageTemplateVersion)
	flags.StringVarP(&cfg.vars, FlagVars, FlagVarsShort, "", UsageVars)
	flags.StringVarP(&cfg.varsFile, FlagVarsFile, FlagVarsFileShort, "", UsageVarsFile)
	flags.StringVarP(&cfg.outputPath, FlagOutput, FlagOutputShort, FlagDefaultOutput, UsageOutput)
	cmd.MarkFlagsMutuallyExclusive(FlagVars, FlagVarsFile)
	cmd.MarkFlagsMutuallyExclusive(FlagTemplate, FlagName)
	cmd.MarkFlagsOneRequired(FlagTemplate, FlagName)
	return cmd
}

func runExpand(cmd *cobra.Command, state *cliState, cfg *expandConfig) error {
	if cfg.templatePath == "" && cfg.name == "" {
		return usageError(ErrMsgMissingTemplate, nil)
	}

	vars, err := loadVars(cfg, cmd)
	if err != nil {
		return err
	}

	var tmpl *uritemplate.Template
	if cfg.name != "" {
		tmpl, err = loadStoredTemplate(cmd, state, cfg.name, cfg.version)
	} else {
		tmpl, err = parseTemplateFlag(cmd, cfg.templatePath)
	}
	if err != nil {
		return err
	}

	result, err := tmpl.ExpandContext(cmd.Context(), vars)
	if err != nil {
		return runError(ErrMsgExpandFailed, err)
	}

	if err := writeOutput(cfg.outputPath, []byte(result+FmtNewline), cmd.OutOrStdout()); err != nil {
		return runError(ErrMsgWriteOutputFailed, err)
	}
	return nil
}

func parseTemplateFlag(cmd *cobra.Command, path string) (*uritemplate.Template, error) {
	source, err := readTemplate(path, cmd.InOrStdin())
	if err != nil {
		return nil, inputError(ErrMsgReadFileFailed, err)
	}

	tmpl, err := uritemplate.Parse(source)
	if err != nil {
		return nil, runError(ErrMsgParseTemplateFailed, err)
	}
	return tmpl, nil
}

// loadStoredTemplate fetches name from the configured catalog. Version 0
// selects the latest.
func loadStoredTemplate(cmd *cobra.Command, state *cliState, name string, version int) (*uritemplate.Template, error) {
	catalog, err := state.openCatalog()
	if err != nil {
		return nil, err
	}
	defer catalog.Storage().Close()

	var tmpl *uritemplate.Template
	if version > 0 {
		tmpl, err = catalog.TemplateVersion(cmd.Context(), name, version)
	} else {
		tmpl, err = catalog.Template(cmd.Context(), name)
	}
	switch {
	case uritemplate.IsNotFound(err):
		return nil, inputError(ErrMsgTemplateNotFound, err)
	case err != nil:
		return nil, runError(ErrMsgLoadTemplateFailed, err)
	}
	return tmpl, nil
}

// loadVars decodes variables from --vars or --vars-file. JSON is accepted
// as a subset of YAML.
func loadVars(cfg *expandConfig, cmd *cobra.Command) (map[string]any, error) {
	var raw []byte
	switch {
	case cfg.vars != "":
		raw = []byte(cfg.vars)
	case cfg.varsFile != "":
		data, err := readInput(cfg.varsFile, cmd.InOrStdin())
		if err != nil {
			return nil, inputError(ErrMsgReadFileFailed, err)
		}
		raw = data
	default:
		return map[string]any{}, nil
	}

	vars, err := decodeVars(raw)
	if err != nil {
		return nil, inputError(ErrMsgInvalidVars, err)
	}
	return vars, nil
}

func decodeVars(raw []byte) (map[string]any, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(raw, &node); err != nil {
		return nil, err
	}
	if node.Kind == 0 {
		return map[string]any{}, nil
	}
	if node.Kind != yaml.DocumentNode || len(node.Content) != 1 || node.Content[0].Kind != yaml.MappingNode {
		return nil, errors.New(ErrMsgInvalidVars)
	}

	vars := map[string]any{}
	if err := node.Content[0].Decode(&vars); err != nil {
		return nil, err
	}
	for name, value := range vars {
		if err := checkVarShape(value); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
	}
	return vars, nil
}

// checkVarShape allows scalars and one level of list or map. RFC 6570
// values have no deeper structure.
func checkVarShape(value any) error {
	switch v := value.(type) {
	case []any:
		for _, item := range v {
			if !isScalarVar(item) {
				return errors.New(ErrMsgNestedVars)
			}
		}
	case map[string]any:
		for _, item := range v {
			if !isScalarVar(item) {
				return errors.New(ErrMsgNestedVars)
			}
		}
	case map[any]any:
		for _, item := range v {
			if !isScalarVar(item) {
				return errors.New(ErrMsgNestedVars)
			}
		}
	}
	return nil
}

func isScalarVar(value any) bool {
	switch value.(type) {
	case []any, map[string]any, map[any]any:
		return false
	}
	return true
}
