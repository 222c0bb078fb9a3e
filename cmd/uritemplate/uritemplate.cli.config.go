package main

import (
	"strings"

	"github.com/itsatony/go-uritemplate"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// cliConfig holds settings merged from flags, environment and config file
type cliConfig struct {
	Format  string `mapstructure:"format"`
	Storage struct {
		Driver string `mapstructure:"driver"`
		DSN    string `mapstructure:"dsn"`
	} `mapstructure:"storage"`
}

// cliState is shared by all commands of one run
type cliState struct {
	v          *viper.Viper
	configPath string
	config     cliConfig
}

func newCLIState() *cliState {
	v := viper.New()
	v.SetDefault(ConfigKeyFormat, FlagDefaultFormat)
	v.SetDefault(ConfigKeyStorageDriver, "")
	v.SetDefault(ConfigKeyStorageDSN, "")
	v.SetEnvPrefix(ConfigEnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return &cliState{v: v}
}

// bindFlag ties a config key to a flag when the command defines it
func (s *cliState) bindFlag(key string, flag *pflag.Flag) {
	if flag != nil {
		_ = s.v.BindPFlag(key, flag)
	}
}

// load reads the config file, if any, and resolves cmd's settings
func (s *cliState) load(cmd *cobra.Command) error {
	s.bindFlag(ConfigKeyFormat, cmd.Flags().Lookup(FlagFormat))

	if s.configPath != "" {
		s.v.SetConfigFile(s.configPath)
		if err := s.v.ReadInConfig(); err != nil {
			return inputError(ErrMsgLoadConfigFailed, err)
		}
	}

	if err := s.v.Unmarshal(&s.config); err != nil {
		return inputError(ErrMsgLoadConfigFailed, err)
	}
	return nil
}

// openCatalog opens the configured storage. The caller closes it.
func (s *cliState) openCatalog() (*uritemplate.Catalog, error) {
	if s.config.Storage.Driver == "" {
		return nil, usageError(ErrMsgStorageNotSet, nil)
	}

	storage, err := uritemplate.OpenStorage(s.config.Storage.Driver, s.config.Storage.DSN)
	if err != nil {
		return nil, runError(ErrMsgOpenStorageFailed, err)
	}
	return uritemplate.NewCatalog(nil, storage), nil
}
