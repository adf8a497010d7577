package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/cobra"
)

const testConfig = `
react-bootstrap:
  transform: "react-bootstrap/lib/{{member}}"
my-library-4:
  transform:
    - ["use(\\w*)", "my-library-4/{{ kebabCase member }}/{{ kebabCase memberMatches.[1] }}"]
    - ["*", "my-library-4/{{ upperCase member }}"]
  skipDefaultConversion: true
`

// setFlags resets the command-line globals and restores them after the test.
func setFlags(t *testing.T, cfg string) {
	t.Helper()
	saved := struct {
		configPath                     string
		writeFlag, diffFlag, checkFlag bool
		jobs                           int
		cacheDir                       string
		excludeGlobs                   []string
	}{configPath, writeFlag, diffFlag, checkFlag, jobs, cacheDir, excludeGlobs}
	t.Cleanup(func() {
		configPath = saved.configPath
		writeFlag, diffFlag, checkFlag = saved.writeFlag, saved.diffFlag, saved.checkFlag
		jobs = saved.jobs
		cacheDir = saved.cacheDir
		excludeGlobs = saved.excludeGlobs
	})

	configPath = cfg
	writeFlag, diffFlag, checkFlag = false, false, false
	jobs = 2
	cacheDir = ""
	excludeGlobs = []string{"**/node_modules/**"}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

// setupProject creates a config file and a small source tree.
func setupProject(t *testing.T) (cfgPath, srcDir string) {
	t.Helper()
	dir := t.TempDir()
	cfgPath = filepath.Join(dir, "transform-exports.yaml")
	writeFile(t, cfgPath, testConfig)

	srcDir = filepath.Join(dir, "src")
	writeFile(t, filepath.Join(srcDir, "index.js"), "export { Button } from \"react-bootstrap\";\n")
	writeFile(t, filepath.Join(srcDir, "hooks", "index.ts"), "export { useToggle } from \"my-library-4\";\n")
	writeFile(t, filepath.Join(srcDir, "plain.js"), "export const x = 1;\n")
	writeFile(t, filepath.Join(srcDir, "README.md"), "# not a module\n")
	writeFile(t, filepath.Join(srcDir, "node_modules", "dep", "index.js"), "export { Alert } from \"react-bootstrap\";\n")
	return cfgPath, srcDir
}

func runWithOutput(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)
	err := runRun(cmd, args)
	return buf.String(), err
}

func TestRootCommand(t *testing.T) {
	if rootCmd.Use != "transform-exports" {
		t.Errorf("expected Use 'transform-exports', got %q", rootCmd.Use)
	}
	if runCmd.RunE == nil || checkConfigCmd.RunE == nil {
		t.Error("subcommands should have RunE set")
	}
	for _, name := range []string{"write", "diff", "check", "jobs", "cache-dir", "exclude"} {
		if runCmd.Flags().Lookup(name) == nil {
			t.Errorf("run should have --%s", name)
		}
	}
	if rootCmd.PersistentFlags().Lookup("config") == nil {
		t.Error("root should have --config")
	}
}

func TestResolveConfigPath(t *testing.T) {
	setFlags(t, "")

	t.Setenv(configEnv, "")
	if got := resolveConfigPath(); got != defaultConfigFile {
		t.Errorf("expected default %q, got %q", defaultConfigFile, got)
	}

	t.Setenv(configEnv, "/etc/rules.yaml")
	if got := resolveConfigPath(); got != "/etc/rules.yaml" {
		t.Errorf("expected env path, got %q", got)
	}

	configPath = "custom.yaml"
	if got := resolveConfigPath(); got != "custom.yaml" {
		t.Errorf("expected flag path, got %q", got)
	}
}

func TestExpandPaths(t *testing.T) {
	_, srcDir := setupProject(t)

	got, err := expandPaths([]string{srcDir}, []string{"**/node_modules/**"})
	if err != nil {
		t.Fatalf("expandPaths failed: %v", err)
	}
	want := []string{
		filepath.Join(srcDir, "hooks", "index.ts"),
		filepath.Join(srcDir, "index.js"),
		filepath.Join(srcDir, "plain.js"),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("expandPaths mismatch (-want +got):\n%s", diff)
	}

	// Globs and explicit files are merged without duplicates.
	got, err = expandPaths([]string{
		filepath.Join(srcDir, "*.js"),
		filepath.Join(srcDir, "index.js"),
		filepath.Join(srcDir, "README.md"),
	}, nil)
	if err != nil {
		t.Fatalf("expandPaths failed: %v", err)
	}
	want = []string{filepath.Join(srcDir, "index.js"), filepath.Join(srcDir, "plain.js")}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("expandPaths mismatch (-want +got):\n%s", diff)
	}

	if _, err := expandPaths([]string{srcDir}, []string{"[bad"}); err == nil {
		t.Error("expected an error for an invalid exclude pattern")
	}
}

func TestRunPrint(t *testing.T) {
	cfgPath, srcDir := setupProject(t)
	setFlags(t, cfgPath)

	out, err := runWithOutput(t, filepath.Join(srcDir, "index.js"))
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	want := "export * as Button from \"react-bootstrap/lib/Button\";\n"
	if out != want {
		t.Errorf("output mismatch:\n got: %q\nwant: %q", out, want)
	}

	original, _ := os.ReadFile(filepath.Join(srcDir, "index.js"))
	if strings.Contains(string(original), "lib/Button") {
		t.Error("print mode must not modify files")
	}
}

func TestRunPrintMultipleFiles(t *testing.T) {
	cfgPath, srcDir := setupProject(t)
	setFlags(t, cfgPath)

	out, err := runWithOutput(t, srcDir)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if !strings.Contains(out, "==> "+filepath.Join(srcDir, "hooks", "index.ts")+" <==") {
		t.Errorf("expected a file header, got:\n%s", out)
	}
	if !strings.Contains(out, `export { useToggle } from "my-library-4/use-toggle/toggle";`) {
		t.Errorf("expected the member rule output, got:\n%s", out)
	}
	if strings.Contains(out, "plain.js") {
		t.Errorf("unchanged files should not be printed, got:\n%s", out)
	}
}

func TestRunWrite(t *testing.T) {
	cfgPath, srcDir := setupProject(t)
	setFlags(t, cfgPath)
	writeFlag = true

	if _, err := runWithOutput(t, srcDir); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	got, err := os.ReadFile(filepath.Join(srcDir, "index.js"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "export * as Button from \"react-bootstrap/lib/Button\";\n" {
		t.Errorf("unexpected rewritten file %q", got)
	}

	dep, _ := os.ReadFile(filepath.Join(srcDir, "node_modules", "dep", "index.js"))
	if string(dep) != "export { Alert } from \"react-bootstrap\";\n" {
		t.Error("excluded files must not be rewritten")
	}
}

func TestRunCheck(t *testing.T) {
	cfgPath, srcDir := setupProject(t)
	setFlags(t, cfgPath)
	checkFlag = true

	out, err := runWithOutput(t, srcDir)
	if err == nil {
		t.Fatal("expected check to fail when files would change")
	}
	if !strings.Contains(out, filepath.Join(srcDir, "index.js")) {
		t.Errorf("expected the changed path to be listed, got:\n%s", out)
	}

	if _, err := runWithOutput(t, filepath.Join(srcDir, "plain.js")); err != nil {
		t.Errorf("check should pass for an unchanged file: %v", err)
	}
}

func TestRunDiff(t *testing.T) {
	cfgPath, srcDir := setupProject(t)
	setFlags(t, cfgPath)
	diffFlag = true

	path := filepath.Join(srcDir, "index.js")
	out, err := runWithOutput(t, path)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	want := "--- a/" + path + "\n" +
		"+++ b/" + path + "\n" +
		"@@ -1,1 +1,1 @@\n" +
		"-export { Button } from \"react-bootstrap\";\n" +
		"+export * as Button from \"react-bootstrap/lib/Button\";\n"
	if out != want {
		t.Errorf("diff mismatch:\n got: %q\nwant: %q", out, want)
	}
}

func TestRunCache(t *testing.T) {
	cfgPath, srcDir := setupProject(t)
	setFlags(t, cfgPath)
	cacheDir = t.TempDir()

	first, err := runWithOutput(t, srcDir)
	if err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	second, err := runWithOutput(t, srcDir)
	if err != nil {
		t.Fatalf("cached run failed: %v", err)
	}
	if first != second {
		t.Errorf("cached output differs:\nfirst:  %q\nsecond: %q", first, second)
	}
	if _, err := os.Stat(filepath.Join(cacheDir, "results.db")); err != nil {
		t.Errorf("expected a cache database: %v", err)
	}
}

func TestRunErrors(t *testing.T) {
	cfgPath, srcDir := setupProject(t)

	setFlags(t, filepath.Join(t.TempDir(), "missing.yaml"))
	if _, err := runWithOutput(t, srcDir); err == nil {
		t.Error("expected an error for a missing config file")
	}

	configPath = cfgPath
	if _, err := runWithOutput(t, filepath.Join(srcDir, "*.css")); err == nil {
		t.Error("expected an error when nothing matches")
	}

	bad := filepath.Join(srcDir, "bad.js")
	writeFile(t, bad, "export { Button from \"react-bootstrap\";\n")
	if _, err := runWithOutput(t, bad); err == nil || !strings.Contains(err.Error(), bad) {
		t.Errorf("expected a parse error naming the file, got %v", err)
	}
}

func TestCheckConfig(t *testing.T) {
	cfgPath, _ := setupProject(t)
	setFlags(t, cfgPath)

	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)
	if err := runCheckConfig(cmd, nil); err != nil {
		t.Fatalf("check-config failed: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "2 package rule(s)") {
		t.Errorf("expected the rule count, got:\n%s", out)
	}
	rb := strings.Index(out, "react-bootstrap -> react-bootstrap/lib/{{member}}")
	lib := strings.Index(out, "my-library-4 -> 2 member rule(s)")
	if rb < 0 || lib < 0 || rb > lib {
		t.Errorf("expected both rules in registration order, got:\n%s", out)
	}
	if !strings.Contains(out, "[skipDefaultConversion]") {
		t.Errorf("expected flags to be listed, got:\n%s", out)
	}
}

func TestWriteUnifiedDiff(t *testing.T) {
	var before, after strings.Builder
	for i := 1; i <= 12; i++ {
		line := "const n" + string(rune('a'+i-1)) + " = 1;\n"
		before.WriteString(line)
		if i == 6 {
			line = "const changed = 2;\n"
		}
		after.WriteString(line)
	}

	var buf bytes.Buffer
	writeUnifiedDiff(&buf, "x.js", before.String(), after.String())
	want := "--- a/x.js\n" +
		"+++ b/x.js\n" +
		"@@ -3,7 +3,7 @@\n" +
		" const nc = 1;\n" +
		" const nd = 1;\n" +
		" const ne = 1;\n" +
		"-const nf = 1;\n" +
		"+const changed = 2;\n" +
		" const ng = 1;\n" +
		" const nh = 1;\n" +
		" const ni = 1;\n"
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("diff mismatch (-want +got):\n%s", diff)
	}

	buf.Reset()
	writeUnifiedDiff(&buf, "x.js", "same\n", "same\n")
	if buf.Len() != 0 {
		t.Errorf("expected no output for identical input, got %q", buf.String())
	}
}
