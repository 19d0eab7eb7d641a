package main

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"mvstories/internal/config"
	"mvstories/internal/story"
	"mvstories/internal/storytext"
	"mvstories/internal/testsupport"
)

// cliTestEnv is an isolated HOME with a config file pointing every mvs
// directory into the test's temp dir.
type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	env := &cliTestEnv{baseDir: t.TempDir()}
	home := filepath.Join(env.baseDir, "home")
	t.Setenv("HOME", home)

	env.cfg = testsupport.NewConfig(t)
	env.cfg.Engine.Inline = false
	env.configPath = filepath.Join(home, ".config", "mvs", "config.toml")
	writeTestConfig(t, env.configPath, env.cfg)
	return env
}

// writeStory stores st as a JSON story file and returns its path.
func (env *cliTestEnv) writeStory(t *testing.T, name string, st story.Story) string {
	t.Helper()
	data, err := storytext.Encode(st)
	if err != nil {
		t.Fatalf("encode story: %v", err)
	}
	path := filepath.Join(env.baseDir, name)
	testsupport.WriteFile(t, path, data)
	return path
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// writeTestConfig writes the directory settings of cfg. [engine] is the last
// table so tests can append engine keys to the file.
func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	lines := []string{
		"[paths]",
		fmt.Sprintf("data_dir = %q", cfg.Paths.DataDir),
		fmt.Sprintf("cache_dir = %q", cfg.Paths.CacheDir),
		fmt.Sprintf("log_dir = %q", cfg.Paths.LogDir),
		fmt.Sprintf("api_bind = %q", cfg.Paths.APIBind),
		"",
		"[compiler]",
		fmt.Sprintf("workers = %d", cfg.Compiler.Workers),
		"",
		"[engine]",
		fmt.Sprintf("inline = %t", cfg.Engine.Inline),
	}
	testsupport.WriteFile(t, path, []byte(strings.Join(lines, "\n")+"\n"))
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected output to contain %q\n---\n%s", needle, haystack)
	}
}
