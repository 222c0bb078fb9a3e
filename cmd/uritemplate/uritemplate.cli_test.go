package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test data constants
const (
	testTemplateContent = "/repos/{owner}/{repo}/issues{?state,labels}\n"
	testVarsYAML        = "owner: octo\nrepo: hello world\nstate: open\nlabels: [bug, ui]\n"
	testExpectedOutput  = "/repos/octo/hello%20world/issues?state=open&labels=bug,ui\n"
)

// setupTestData creates test files in a temp directory
func setupTestData(t *testing.T) string {
	t.Helper()
	tmpDir := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "template.txt"), []byte(testTemplateContent), FilePermissions))
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "vars.yaml"), []byte(testVarsYAML), FilePermissions))
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "vars.json"), []byte(`{"owner": "octo", "repo": "x"}`), FilePermissions))
	return tmpDir
}

type cliResult struct {
	code   int
	stdout string
	stderr string
}

func runCLI(stdin string, args ...string) cliResult {
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	code := run(args, strings.NewReader(stdin), stdout, stderr)
	return cliResult{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

// ==================== run() dispatch tests ====================

func TestRun_NoArgs_ShowsHelp(t *testing.T) {
	res := runCLI("")

	assert.Equal(t, ExitCodeSuccess, res.code)
	assert.Contains(t, res.stdout, CLIName)
	assert.Contains(t, res.stdout, CmdNameExpand)
	assert.Contains(t, res.stdout, CmdNameValidate)
}

func TestRun_HelpCommand(t *testing.T) {
	res := runCLI("", "help", CmdNameExpand)

	assert.Equal(t, ExitCodeSuccess, res.code)
	assert.Contains(t, res.stdout, HelpExpandShort)
	assert.Contains(t, res.stdout, "--"+FlagVarsFile)
}

func TestRun_UnknownCommand(t *testing.T) {
	res := runCLI("", "unknown")

	assert.Equal(t, ExitCodeUsageError, res.code)
	assert.Contains(t, res.stderr, "unknown command")
}

func TestRun_UnknownFlag(t *testing.T) {
	res := runCLI("", CmdNameExpand, "--bogus")

	assert.Equal(t, ExitCodeUsageError, res.code)
	assert.Contains(t, res.stderr, "bogus")
}

// ==================== expand tests ====================

func TestExpand(t *testing.T) {
	dir := setupTestData(t)
	templatePath := filepath.Join(dir, "template.txt")

	tests := []struct {
		name   string
		stdin  string
		args   []string
		code   int
		stdout string
	}{
		{
			name:   "file template with yaml vars file",
			args:   []string{"-t", templatePath, "-f", filepath.Join(dir, "vars.yaml")},
			code:   ExitCodeSuccess,
			stdout: testExpectedOutput,
		},
		{
			name:   "json vars file",
			args:   []string{"-t", templatePath, "--vars-file", filepath.Join(dir, "vars.json")},
			code:   ExitCodeSuccess,
			stdout: "/repos/octo/x/issues\n",
		},
		{
			name:   "inline template with json vars",
			args:   []string{"-t", "/users/{id}{?fields*}", "-d", `{"id": 42, "fields": ["name", "email"]}`},
			code:   ExitCodeSuccess,
			stdout: "/users/42?fields=name&fields=email\n",
		},
		{
			name:   "template from stdin",
			stdin:  "/search{?q}\n",
			args:   []string{"-t", "-", "--vars", "q: hello world"},
			code:   ExitCodeSuccess,
			stdout: "/search?q=hello%20world\n",
		},
		{
			name:   "vars from stdin",
			stdin:  "id: 7",
			args:   []string{"-t", "{/id}", "-f", "-"},
			code:   ExitCodeSuccess,
			stdout: "/7\n",
		},
		{
			name:   "no vars leaves expressions empty",
			args:   []string{"-t", "/a{?x,y}"},
			code:   ExitCodeSuccess,
			stdout: "/a\n",
		},
		{
			name: "missing template flag",
			args: []string{"-d", "{}"},
			code: ExitCodeUsageError,
		},
		{
			name: "vars and vars file together",
			args: []string{"-t", templatePath, "-d", "{}", "-f", filepath.Join(dir, "vars.yaml")},
			code: ExitCodeUsageError,
		},
		{
			name: "unexpected positional argument",
			args: []string{"-t", templatePath, "extra"},
			code: ExitCodeUsageError,
		},
		{
			name: "missing template file",
			args: []string{"-t", filepath.Join(dir, "missing.txt")},
			code: ExitCodeInputError,
		},
		{
			name: "missing vars file",
			args: []string{"-t", templatePath, "-f", filepath.Join(dir, "missing.yaml")},
			code: ExitCodeInputError,
		},
		{
			name: "vars are not an object",
			args: []string{"-t", templatePath, "-d", "[1, 2]"},
			code: ExitCodeInputError,
		},
		{
			name: "vars do not parse",
			args: []string{"-t", templatePath, "-d", "{"},
			code: ExitCodeInputError,
		},
		{
			name: "nested map in vars",
			args: []string{"-t", templatePath, "-d", `{"m": {"k": {"deep": 1}}}`},
			code: ExitCodeInputError,
		},
		{
			name: "syntax error",
			args: []string{"-t", "/x{a b}"},
			code: ExitCodeError,
		},
		{
			name: "prefix on a list",
			args: []string{"-t", "/x{list:2}", "-d", `{"list": ["a"]}`},
			code: ExitCodeError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := runCLI(tt.stdin, append([]string{CmdNameExpand}, tt.args...)...)

			assert.Equal(t, tt.code, res.code, "stderr: %s", res.stderr)
			if tt.code == ExitCodeSuccess {
				assert.Equal(t, tt.stdout, res.stdout)
				assert.Empty(t, res.stderr)
			} else {
				assert.NotEmpty(t, res.stderr)
			}
		})
	}
}

func TestExpand_OutputFile(t *testing.T) {
	dir := setupTestData(t)
	outPath := filepath.Join(dir, "out.txt")

	res := runCLI("", CmdNameExpand,
		"-t", filepath.Join(dir, "template.txt"),
		"-f", filepath.Join(dir, "vars.yaml"),
		"-o", outPath)
	require.Equal(t, ExitCodeSuccess, res.code, res.stderr)
	assert.Empty(t, res.stdout)

	content, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, testExpectedOutput, string(content))
}

func TestExpand_ErrorMessages(t *testing.T) {
	res := runCLI("", CmdNameExpand, "-t", "/x{list:2}", "-d", `{"list": ["a"]}`)

	assert.Contains(t, res.stderr, ErrMsgExpandFailed)
	assert.Empty(t, res.stdout)
}

// ==================== validate tests ====================

func TestValidate_Text(t *testing.T) {
	res := runCLI("", CmdNameValidate, "-t", "/repos/{owner}/{repo}{?page,per_page}")

	require.Equal(t, ExitCodeSuccess, res.code, res.stderr)
	assert.Contains(t, res.stdout, ValidationTextSuccess)
	assert.Contains(t, res.stdout, ValidationTextExprHeader)
	assert.Contains(t, res.stdout, "{?page,per_page}")
	assert.Contains(t, res.stdout, "Variables: owner, repo, page, per_page")
}

func TestValidate_TextNoExpressions(t *testing.T) {
	res := runCLI("/static\n", CmdNameValidate, "-t", "-")

	require.Equal(t, ExitCodeSuccess, res.code, res.stderr)
	assert.Contains(t, res.stdout, ValidationTextNoVars)
	assert.NotContains(t, res.stdout, ValidationTextExprHeader)
}

func TestValidate_JSON(t *testing.T) {
	res := runCLI("", CmdNameValidate, "-t", "/repos/{owner}{?q,page}", "-F", OutputFormatJSON)
	require.Equal(t, ExitCodeSuccess, res.code, res.stderr)

	var out validationOutput
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &out))
	assert.True(t, out.Valid)
	assert.Equal(t, []string{"owner", "q", "page"}, out.Variables)
	require.Len(t, out.Expressions, 2)
	assert.Equal(t, "query", out.Expressions[1].Style)
	assert.Equal(t, 14, out.Expressions[1].Offset)
}

func TestValidate_InvalidTemplate(t *testing.T) {
	t.Run("text", func(t *testing.T) {
		res := runCLI("", CmdNameValidate, "-t", "/x{a b}")

		assert.Equal(t, ExitCodeError, res.code)
		assert.Empty(t, res.stdout)
		assert.Contains(t, res.stderr, ErrMsgParseTemplateFailed)
	})

	t.Run("json", func(t *testing.T) {
		res := runCLI("", CmdNameValidate, "-t", "/x{a b}", "--format", OutputFormatJSON)
		assert.Equal(t, ExitCodeError, res.code)

		var out validationOutput
		require.NoError(t, json.Unmarshal([]byte(res.stdout), &out))
		assert.False(t, out.Valid)
		assert.Equal(t, "syntax", out.Kind)
		assert.NotEmpty(t, out.Error)
		assert.NotNil(t, out.Offset)
		assert.Empty(t, out.Expressions)
	})
}

func TestValidate_UsageErrors(t *testing.T) {
	assert.Equal(t, ExitCodeUsageError, runCLI("", CmdNameValidate).code)
	assert.Equal(t, ExitCodeUsageError, runCLI("", CmdNameValidate, "-t", "{x}", "-F", "xml").code)
}

// ==================== version tests ====================

func TestVersion_Text(t *testing.T) {
	res := runCLI("", CmdNameVersion)

	assert.Equal(t, ExitCodeSuccess, res.code)
	assert.Contains(t, res.stdout, "go-uritemplate version")
}

func TestVersion_JSON(t *testing.T) {
	res := runCLI("", CmdNameVersion, "-F", OutputFormatJSON)
	require.Equal(t, ExitCodeSuccess, res.code)

	var out versionOutput
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &out))
	assert.NotEmpty(t, out.Version)
	assert.NotEmpty(t, out.GoVersion)
}

func TestVersion_InvalidFormat(t *testing.T) {
	res := runCLI("", CmdNameVersion, "--format", "xml")

	assert.Equal(t, ExitCodeUsageError, res.code)
	assert.Contains(t, res.stderr, ErrMsgInvalidFormat)
}

func TestGetVersionInfo(t *testing.T) {
	t.Run("reads the first parseable file", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "versions.yaml")
		content := "project:\n  version: 1.2.3\ngit:\n  commit: abc123\n  branch: main\nbuild:\n  time: 2026-01-01\n"
		require.NoError(t, os.WriteFile(path, []byte(content), FilePermissions))

		info := getVersionInfo([]string{filepath.Join(dir, "missing.yaml"), path})
		assert.Equal(t, "1.2.3", info.Version)
		assert.Equal(t, "abc123", info.Commit)
		assert.Equal(t, "main", info.Branch)
		assert.Equal(t, "2026-01-01", info.BuildTime)
		assert.Equal(t, runtime.Version(), info.GoVersion)
	})

	t.Run("defaults when nothing is found", func(t *testing.T) {
		info := getVersionInfo([]string{filepath.Join(t.TempDir(), "missing.yaml")})
		assert.Equal(t, VersionUnknown, info.Version)
		assert.Equal(t, VersionUnknown, info.Commit)
		assert.Equal(t, runtime.Version(), info.GoVersion)
	})
}

// ==================== input helper tests ====================

func TestReadTemplate(t *testing.T) {
	dir := setupTestData(t)

	source, err := readTemplate(filepath.Join(dir, "template.txt"), nil)
	require.NoError(t, err)
	assert.Equal(t, strings.TrimSuffix(testTemplateContent, "\n"), source)

	source, err = readTemplate("-", strings.NewReader("{x}\r\n"))
	require.NoError(t, err)
	assert.Equal(t, "{x}", source)

	source, err = readTemplate("{?inline}", nil)
	require.NoError(t, err)
	assert.Equal(t, "{?inline}", source)

	_, err = readTemplate(filepath.Join(dir, "plain-missing"), nil)
	assert.Error(t, err)
}

func TestDecodeVars(t *testing.T) {
	vars, err := decodeVars([]byte(`{"a": 1, "b": [1, 2], "c": {"k": "v"}}`))
	require.NoError(t, err)
	assert.Equal(t, 1, vars["a"])
	assert.Equal(t, []any{1, 2}, vars["b"])
	assert.Equal(t, map[string]any{"k": "v"}, vars["c"])

	vars, err = decodeVars([]byte("   "))
	require.NoError(t, err)
	assert.Empty(t, vars)

	_, err = decodeVars([]byte("just a string"))
	assert.Error(t, err)
}

func TestDecodeVars_RejectsNestedValues(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "map in map", raw: `{"c": {"k": {"deep": 1}}}`},
		{name: "list in map", raw: `{"c": {"k": [1]}}`},
		{name: "map in list", raw: `{"c": [{"k": "v"}]}`},
		{name: "list in list", raw: `{"c": [[1, 2]]}`},
		{name: "yaml nested map", raw: "c:\n  k:\n    deep: 1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodeVars([]byte(tt.raw))
			require.Error(t, err)
			assert.Contains(t, err.Error(), ErrMsgNestedVars)
		})
	}
}

// ==================== storage command tests ====================

func storageArgs(dir string) []string {
	return []string{"--storage-driver", "filesystem", "--storage-dsn", dir}
}

func TestPublishAndExpandStored(t *testing.T) {
	dir := t.TempDir()
	store := storageArgs(dir)

	res := runCLI("", append([]string{CmdNamePublish, "-n", "repos.get", "-t", "/repos/{owner}/{repo}", "--tag", "public"}, store...)...)
	require.Equal(t, ExitCodeSuccess, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Published repos.get v1")

	res = runCLI("/v2/repos/{owner}/{repo}{?fields*}", append([]string{CmdNamePublish, "-n", "repos.get", "-t", "-"}, store...)...)
	require.Equal(t, ExitCodeSuccess, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Published repos.get v2")

	vars := `{"owner": "octo", "repo": "x", "fields": ["a", "b"]}`

	t.Run("latest", func(t *testing.T) {
		res := runCLI("", append([]string{CmdNameExpand, "-n", "repos.get", "-d", vars}, store...)...)
		require.Equal(t, ExitCodeSuccess, res.code, res.stderr)
		assert.Equal(t, "/v2/repos/octo/x?fields=a&fields=b\n", res.stdout)
	})

	t.Run("pinned version", func(t *testing.T) {
		res := runCLI("", append([]string{CmdNameExpand, "-n", "repos.get", "--version", "1", "-d", vars}, store...)...)
		require.Equal(t, ExitCodeSuccess, res.code, res.stderr)
		assert.Equal(t, "/repos/octo/x\n", res.stdout)
	})

	t.Run("unknown name", func(t *testing.T) {
		res := runCLI("", append([]string{CmdNameExpand, "-n", "nope"}, store...)...)
		assert.Equal(t, ExitCodeInputError, res.code)
		assert.Contains(t, res.stderr, ErrMsgTemplateNotFound)
	})

	t.Run("unknown version", func(t *testing.T) {
		res := runCLI("", append([]string{CmdNameExpand, "-n", "repos.get", "--version", "9"}, store...)...)
		assert.Equal(t, ExitCodeInputError, res.code)
	})

	t.Run("name and template together", func(t *testing.T) {
		res := runCLI("", append([]string{CmdNameExpand, "-n", "repos.get", "-t", "{x}"}, store...)...)
		assert.Equal(t, ExitCodeUsageError, res.code)
	})

	t.Run("list latest", func(t *testing.T) {
		res := runCLI("", append([]string{CmdNameList}, store...)...)
		require.Equal(t, ExitCodeSuccess, res.code, res.stderr)
		assert.Contains(t, res.stdout, "v2")
		assert.NotContains(t, res.stdout, "v1 ")
	})

	t.Run("list all versions as json", func(t *testing.T) {
		res := runCLI("", append([]string{CmdNameList, "--all-versions", "-F", OutputFormatJSON}, store...)...)
		require.Equal(t, ExitCodeSuccess, res.code, res.stderr)

		var out []map[string]any
		require.NoError(t, json.Unmarshal([]byte(res.stdout), &out))
		require.Len(t, out, 2)
		assert.Equal(t, "repos.get", out[0]["name"])
	})

	t.Run("list by tag", func(t *testing.T) {
		res := runCLI("", append([]string{CmdNameList, "--all-versions", "--tag", "public", "-F", OutputFormatJSON}, store...)...)
		require.Equal(t, ExitCodeSuccess, res.code, res.stderr)

		var out []map[string]any
		require.NoError(t, json.Unmarshal([]byte(res.stdout), &out))
		require.Len(t, out, 1)
		assert.EqualValues(t, 1, out[0]["version"])
	})

	t.Run("list with no matches", func(t *testing.T) {
		res := runCLI("", append([]string{CmdNameList, "--prefix", "users."}, store...)...)
		require.Equal(t, ExitCodeSuccess, res.code, res.stderr)
		assert.Contains(t, res.stdout, ListTextEmpty)
	})
}

func TestPublish_Errors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name string
		args []string
		code int
	}{
		{"no storage configured", []string{"-n", "a", "-t", "{x}"}, ExitCodeUsageError},
		{"missing name", append([]string{"-t", "{x}"}, storageArgs(dir)...), ExitCodeUsageError},
		{"missing template", append([]string{"-n", "a"}, storageArgs(dir)...), ExitCodeUsageError},
		{"invalid template", append([]string{"-n", "a", "-t", "/x{a b}"}, storageArgs(dir)...), ExitCodeError},
		{"unknown driver", []string{"-n", "a", "-t", "{x}", "--storage-driver", "nope"}, ExitCodeError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := runCLI("", append([]string{CmdNamePublish}, tt.args...)...)
			assert.Equal(t, tt.code, res.code, "stderr: %s", res.stderr)
		})
	}
}

// ==================== config tests ====================

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	storeDir := filepath.Join(dir, "templates")
	configPath := filepath.Join(dir, "uritemplate.yaml")
	content := "format: json\nstorage:\n  driver: filesystem\n  dsn: " + storeDir + "\n"
	require.NoError(t, os.WriteFile(configPath, []byte(content), FilePermissions))

	t.Run("format default", func(t *testing.T) {
		res := runCLI("", CmdNameValidate, "-c", configPath, "-t", "{x}")
		require.Equal(t, ExitCodeSuccess, res.code, res.stderr)

		var out validationOutput
		require.NoError(t, json.Unmarshal([]byte(res.stdout), &out))
		assert.True(t, out.Valid)
	})

	t.Run("flag overrides file", func(t *testing.T) {
		res := runCLI("", CmdNameValidate, "-c", configPath, "-t", "{x}", "-F", OutputFormatText)
		require.Equal(t, ExitCodeSuccess, res.code, res.stderr)
		assert.Contains(t, res.stdout, ValidationTextSuccess)
	})

	t.Run("storage from file", func(t *testing.T) {
		res := runCLI("", CmdNamePublish, "-c", configPath, "-n", "search", "-t", "/search{?q}")
		require.Equal(t, ExitCodeSuccess, res.code, res.stderr)

		res = runCLI("", CmdNameExpand, "--config", configPath, "-n", "search", "-d", "q: go")
		require.Equal(t, ExitCodeSuccess, res.code, res.stderr)
		assert.Equal(t, "/search?q=go\n", res.stdout)
	})

	t.Run("missing config file", func(t *testing.T) {
		res := runCLI("", CmdNameVersion, "-c", filepath.Join(dir, "missing.yaml"))
		assert.Equal(t, ExitCodeInputError, res.code)
		assert.Contains(t, res.stderr, ErrMsgLoadConfigFailed)
	})
}

func TestConfigEnv(t *testing.T) {
	t.Setenv("URITEMPLATE_FORMAT", OutputFormatJSON)

	res := runCLI("", CmdNameVersion)
	require.Equal(t, ExitCodeSuccess, res.code, res.stderr)

	var out versionOutput
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &out))
	assert.NotEmpty(t, out.GoVersion)
}
