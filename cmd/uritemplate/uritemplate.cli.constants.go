package main

// Command names
const (
	CmdNameRoot     = "uritemplate"
	CmdNameExpand   = "expand"
	CmdNameValidate = "validate"
	CmdNameVersion  = "version"
	CmdNamePublish  = "publish"
	CmdNameList     = "list"
)

// Flag names - long form
const (
	FlagTemplate = "template"
	FlagVars     = "vars"
	FlagVarsFile = "vars-file"
	FlagOutput   = "output"
	FlagFormat   = "format"

	FlagConfig          = "config"
	FlagStorageDriver   = "storage-driver"
	FlagStorageDSN      = "storage-dsn"
	FlagName            = "name"
	FlagTemplateVersion = "version"
	FlagDescription     = "description"
	FlagTag             = "tag"
	FlagPrefix          = "prefix"
	FlagAllVersions     = "all-versions"
)

// Flag names - short form
const (
	FlagTemplateShort = "t"
	FlagVarsShort     = "d"
	FlagVarsFileShort = "f"
	FlagOutputShort   = "o"
	FlagFormatShort   = "F"
	FlagConfigShort   = "c"
	FlagNameShort     = "n"
)

// Configuration keys, settable in the config file or as URITEMPLATE_* env vars
const (
	ConfigKeyFormat        = "format"
	ConfigKeyStorageDriver = "storage.driver"
	ConfigKeyStorageDSN    = "storage.dsn"
	ConfigEnvPrefix        = "URITEMPLATE"
)

// Flag default values
const (
	FlagDefaultOutput = "-" // stdout
	FlagDefaultFormat = OutputFormatText
)

// Output formats
const (
	OutputFormatText = "text"
	OutputFormatJSON = "json"
)

// Exit codes
const (
	ExitCodeSuccess    = 0
	ExitCodeError      = 1
	ExitCodeUsageError = 2
	ExitCodeInputError = 3
)

// Input source indicators
const (
	InputSourceStdin = "-"
)

// Error messages - ALL must be constants
const (
	ErrMsgMissingTemplate     = "template source required"
	ErrMsgInvalidVars         = "invalid variables: expected a JSON or YAML object"
	ErrMsgNestedVars          = "invalid variables: list items and map values must be scalars"
	ErrMsgReadFileFailed      = "failed to read file"
	ErrMsgWriteOutputFailed   = "failed to write output"
	ErrMsgParseTemplateFailed = "template parsing failed"
	ErrMsgExpandFailed        = "template expansion failed"
	ErrMsgInvalidFormat       = "invalid output format"
	ErrMsgJSONMarshalFailed   = "failed to marshal JSON"
	ErrMsgLoadConfigFailed    = "failed to load config"
	ErrMsgStorageNotSet       = "no storage configured: set --storage-driver or storage.driver"
	ErrMsgOpenStorageFailed   = "failed to open template storage"
	ErrMsgMissingName         = "template name required"
	ErrMsgTemplateNotFound    = "stored template not found"
	ErrMsgLoadTemplateFailed  = "failed to load stored template"
	ErrMsgPublishFailed       = "failed to publish template"
	ErrMsgListFailed          = "failed to list templates"
)

// Help text
const (
	HelpRootShort = "RFC 6570 URI Template CLI"
	HelpRootLong  = `go-uritemplate - expand and inspect RFC 6570 URI Templates

Templates are read from a file, or from stdin when -t is "-".
Variables are given as a JSON or YAML object.`

	HelpExpandShort   = "Expand a template with variables"
	HelpExpandExample = `  uritemplate expand -t '/users/{id}{?fields*}' -d '{"id": 42, "fields": ["a", "b"]}'
  uritemplate expand -t template.txt -f vars.yaml
  echo '/search{?q}' | uritemplate expand -t - -d 'q: hello world'`

	HelpValidateShort   = "Parse a template and list its expressions"
	HelpValidateExample = `  uritemplate validate -t '/repos/{owner}/{repo}{?page,per_page}'
  uritemplate validate -t template.txt -F json`

	HelpVersionShort = "Show version information"

	HelpPublishShort   = "Store a new version of a named template"
	HelpPublishExample = `  uritemplate publish --storage-driver filesystem --storage-dsn ./templates -n repos.get -t '/repos/{owner}/{repo}'
  uritemplate publish -c uritemplate.yaml -n search -t - --tag public < search.txt`

	HelpListShort   = "List stored templates"
	HelpListExample = `  uritemplate list -c uritemplate.yaml
  uritemplate list -c uritemplate.yaml --prefix repos. --all-versions -F json`
)

// Flag usage text
const (
	UsageTemplate = `template file, "-" for stdin, or an inline template containing "{"`
	UsageVars     = "variables as a JSON or YAML object"
	UsageVarsFile = "file holding variables as JSON or YAML"
	UsageOutput   = "output file (default: stdout)"
	UsageFormat   = "output format: text, json"

	UsageConfig          = "config file (YAML, JSON or TOML)"
	UsageStorageDriver   = "template storage driver: memory, filesystem, postgres"
	UsageStorageDSN      = "template storage connection string or directory"
	UsageName            = "name of a stored template"
	UsageTemplateVersion = "stored template version (default: latest)"
	UsageDescription     = "template description"
	UsageTag             = "template tag (repeatable)"
	UsagePrefix          = "only names with this prefix"
	UsageAllVersions     = "include every version, not only the latest"
)

// Storage output format templates
const (
	PublishTextFormat = "Published %s v%d (%s)"
	ListTextFormat    = "%-32s v%-4d %s"
	ListTextEmpty     = "No templates stored"
)

// Version output format templates
const (
	VersionTextTemplate = "go-uritemplate version %s\nCommit: %s\nBranch: %s\nBuilt: %s\nGo: %s"
	VersionUnknown      = "unknown"
)

// Validation output format templates
const (
	ValidationTextSuccess    = "Template is valid"
	ValidationTextExprFormat = "  %-24s %-10s offset %d"
	ValidationTextVarsFormat = "Variables: %s"
	ValidationTextNoVars     = "Variables: (none)"
	ValidationTextExprHeader = "Expressions:"
)

// CLI metadata
const (
	CLIName        = "uritemplate"
	CLIDescription = "RFC 6570 URI Template CLI"
)

// File permission constant
const (
	FilePermissions = 0644
)

// Format string constants
const (
	FmtErrorWithDetail = "%s: %s\n"
	FmtErrorWithCause  = "%s: %v\n"
	FmtError           = "Error: %v\n"
	FmtNewline         = "\n"
)
