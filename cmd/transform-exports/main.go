// Package main provides the transform-exports CLI.
package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
)

const (
	defaultConfigFile = "transform-exports.yaml"
	configEnv         = "TRANSFORM_EXPORTS_CONFIG"
)

// Version is the current CLI version
var Version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:     "transform-exports",
	Short:   "Rewrite barrel re-exports into per-symbol re-exports",
	Long:    `transform-exports rewrites export statements that re-export from a barrel package so that each symbol points at its own submodule, letting bundlers drop unused code.`,
	Version: Version,
}

var runCmd = &cobra.Command{
	Use:   "run [paths or globs...]",
	Short: "Rewrite export statements in JavaScript and TypeScript files",
	Long: `Rewrite export statements in JavaScript and TypeScript files.

Arguments are files, directories or doublestar globs. Directories are
searched for .js, .jsx, .mjs, .cjs, .ts, .mts, .cts and .tsx files.

Examples:
  transform-exports run src/index.js           # Print the rewritten file
  transform-exports run -w 'src/**/index.ts'   # Rewrite files in place
  transform-exports run --diff src             # Show what would change
  transform-exports run --check src            # Fail if anything would change

The rules are read from --config, then $TRANSFORM_EXPORTS_CONFIG, then
./transform-exports.yaml.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRun,
}

var checkConfigCmd = &cobra.Command{
	Use:   "check-config",
	Short: "Validate the configuration and list the registered patterns",
	RunE:  runCheckConfig,
}

var (
	configPath   string
	verbose      bool
	writeFlag    bool
	diffFlag     bool
	checkFlag    bool
	jobs         int
	cacheDir     string
	excludeGlobs []string
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to the rules file (YAML or JSON)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log every processed file")

	runCmd.Flags().BoolVarP(&writeFlag, "write", "w", false, "Write results back to the files")
	runCmd.Flags().BoolVar(&diffFlag, "diff", false, "Print a diff instead of the rewritten source")
	runCmd.Flags().BoolVar(&checkFlag, "check", false, "Exit with an error if any file would be rewritten")
	runCmd.Flags().IntVarP(&jobs, "jobs", "j", runtime.NumCPU(), "Number of files processed concurrently")
	runCmd.Flags().StringVar(&cacheDir, "cache-dir", "", "Directory for the result cache (disabled when empty)")
	runCmd.Flags().StringSliceVar(&excludeGlobs, "exclude", []string{"**/node_modules/**"}, "Glob patterns of paths to skip")
	runCmd.MarkFlagsMutuallyExclusive("write", "diff", "check")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(checkConfigCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
