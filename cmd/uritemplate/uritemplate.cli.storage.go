package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/itsatony/go-uritemplate"
	"github.com/spf13/cobra"
)

// publishConfig holds parsed publish command configuration
type publishConfig struct {
	name         string
	templatePath string
	description  string
	tags         []string
}

// listConfig holds parsed list command configuration
type listConfig struct {
	prefix      string
	tags        []string
	allVersions bool
}

func newPublishCmd(state *cliState) *cobra.Command {
	cfg := &publishConfig{}
	cmd := &cobra.Command{
		Use:     CmdNamePublish,
		Short:   HelpPublishShort,
		Example: HelpPublishExample,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPublish(cmd, state, cfg)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&cfg.name, FlagName, FlagNameShort, "", UsageName)
	flags.StringVarP(&cfg.templatePath, FlagTemplate, FlagTemplateShort, "", UsageTemplate)
	flags.StringVar(&cfg.description, FlagDescription, "", UsageDescription)
	flags.StringSliceVar(&cfg.tags, FlagTag, nil, UsageTag)
	return cmd
}

func runPublish(cmd *cobra.Command, state *cliState, cfg *publishConfig) error {
	if cfg.name == "" {
		return usageError(ErrMsgMissingName, nil)
	}
	if cfg.templatePath == "" {
		return usageError(ErrMsgMissingTemplate, nil)
	}

	source, err := readTemplate(cfg.templatePath, cmd.InOrStdin())
	if err != nil {
		return inputError(ErrMsgReadFileFailed, err)
	}

	catalog, err := state.openCatalog()
	if err != nil {
		return err
	}
	defer catalog.Storage().Close()

	stored := &uritemplate.StoredTemplate{
		Name:        cfg.name,
		Source:      source,
		Description: cfg.description,
		Tags:        cfg.tags,
	}
	if err := catalog.Storage().Save(cmd.Context(), stored); err != nil {
		return runError(ErrMsgPublishFailed, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), PublishTextFormat+FmtNewline, stored.Name, stored.Version, stored.ID)
	return nil
}

func newListCmd(state *cliState) *cobra.Command {
	cfg := &listConfig{}
	cmd := &cobra.Command{
		Use:     CmdNameList,
		Short:   HelpListShort,
		Example: HelpListExample,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runList(cmd, state, cfg)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&cfg.prefix, FlagPrefix, "", UsagePrefix)
	flags.StringSliceVar(&cfg.tags, FlagTag, nil, UsageTag)
	flags.BoolVar(&cfg.allVersions, FlagAllVersions, false, UsageAllVersions)
	flags.StringP(FlagFormat, FlagFormatShort, FlagDefaultFormat, UsageFormat)
	return cmd
}

func runList(cmd *cobra.Command, state *cliState, cfg *listConfig) error {
	format := state.config.Format
	if err := validateFormat(format); err != nil {
		return err
	}

	catalog, err := state.openCatalog()
	if err != nil {
		return err
	}
	defer catalog.Storage().Close()

	templates, err := catalog.Storage().List(cmd.Context(), &uritemplate.TemplateQuery{
		NamePrefix:         cfg.prefix,
		Tags:               cfg.tags,
		IncludeAllVersions: cfg.allVersions,
	})
	if err != nil {
		return runError(ErrMsgListFailed, err)
	}

	if format == OutputFormatJSON {
		return outputListJSON(templates, cmd.OutOrStdout())
	}
	outputListText(templates, cmd.OutOrStdout())
	return nil
}

func outputListText(templates []*uritemplate.StoredTemplate, stdout io.Writer) {
	if len(templates) == 0 {
		fmt.Fprintln(stdout, ListTextEmpty)
		return
	}
	for _, t := range templates {
		fmt.Fprintf(stdout, ListTextFormat+FmtNewline, t.Name, t.Version, t.Source)
	}
}

func outputListJSON(templates []*uritemplate.StoredTemplate, stdout io.Writer) error {
	if templates == nil {
		templates = []*uritemplate.StoredTemplate{}
	}
	jsonBytes, err := json.MarshalIndent(templates, "", "  ")
	if err != nil {
		return runError(ErrMsgJSONMarshalFailed, err)
	}
	fmt.Fprintln(stdout, string(jsonBytes))
	return nil
}
