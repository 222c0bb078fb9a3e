package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// versionOutput represents JSON output for version
type versionOutput struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Branch    string `json:"branch"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
}

// versionsYAML represents the versions.yaml file structure
type versionsYAML struct {
	Project struct {
		Name        string `yaml:"name"`
		Version     string `yaml:"version"`
		Description string `yaml:"description"`
	} `yaml:"project"`
	Git struct {
		Commit string `yaml:"commit"`
		Branch string `yaml:"branch"`
		Tag    string `yaml:"tag"`
	} `yaml:"git"`
	Build struct {
		Time      string `yaml:"time"`
		GoVersion string `yaml:"go_version"`
	} `yaml:"build"`
}

// versionSearchPaths are tried in order; the first readable file wins
var versionSearchPaths = []string{"versions.yaml", "../versions.yaml", "../../versions.yaml"}

func newVersionCmd(state *cliState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   CmdNameVersion,
		Short: HelpVersionShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format := state.config.Format
			if err := validateFormat(format); err != nil {
				return err
			}
			info := getVersionInfo(versionSearchPaths)
			if format == OutputFormatJSON {
				return outputVersionJSON(info, cmd.OutOrStdout())
			}
			outputVersionText(info, cmd.OutOrStdout())
			return nil
		},
	}
	cmd.Flags().StringP(FlagFormat, FlagFormatShort, FlagDefaultFormat, UsageFormat)
	return cmd
}

func getVersionInfo(paths []string) versionOutput {
	info := versionOutput{
		Version:   VersionUnknown,
		Commit:    VersionUnknown,
		Branch:    VersionUnknown,
		BuildTime: VersionUnknown,
		GoVersion: runtime.Version(),
	}

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}

		var vy versionsYAML
		if err := yaml.Unmarshal(data, &vy); err != nil {
			continue
		}

		info.Version = orUnknown(vy.Project.Version)
		info.Commit = orUnknown(vy.Git.Commit)
		info.Branch = orUnknown(vy.Git.Branch)
		if vy.Build.Time != "" {
			info.BuildTime = vy.Build.Time
		}
		if vy.Build.GoVersion != "" {
			info.GoVersion = vy.Build.GoVersion
		}
		break
	}

	return info
}

func orUnknown(s string) string {
	if s == "" {
		return VersionUnknown
	}
	return s
}

func outputVersionText(v versionOutput, stdout io.Writer) {
	fmt.Fprintf(stdout, VersionTextTemplate+FmtNewline,
		v.Version, v.Commit, v.Branch, v.BuildTime, v.GoVersion)
}

func outputVersionJSON(v versionOutput, stdout io.Writer) error {
	jsonBytes, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return runError(ErrMsgJSONMarshalFailed, err)
	}
	fmt.Fprintln(stdout, string(jsonBytes))
	return nil
}
