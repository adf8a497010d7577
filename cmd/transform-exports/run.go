package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Helloyunho/transform-exports/cache"
	"github.com/Helloyunho/transform-exports/config"
	"github.com/Helloyunho/transform-exports/parse"
	"github.com/Helloyunho/transform-exports/pattern"
	"github.com/Helloyunho/transform-exports/transform"
)

const sourceGlob = "**/*.{js,jsx,mjs,cjs,ts,mts,cts,tsx}"

// fileResult is the outcome of transforming one file.
type fileResult struct {
	path    string
	mode    os.FileMode
	before  []byte
	after   []byte
	changed bool
}

func newLogger() zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().
		Timestamp().
		Logger()
}

// resolveConfigPath picks the flag, then the environment, then the default file.
func resolveConfigPath() string {
	if configPath != "" {
		return configPath
	}
	if val := os.Getenv(configEnv); val != "" {
		return val
	}
	return defaultConfigFile
}

func loadTransformer() (*config.Config, *transform.Transformer, error) {
	cfg, err := config.Load(resolveConfigPath())
	if err != nil {
		return nil, nil, err
	}
	tr, err := transform.New(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, tr, nil
}

func runRun(cmd *cobra.Command, args []string) error {
	log := newLogger()

	cfg, tr, err := loadTransformer()
	if err != nil {
		return err
	}

	files, err := expandPaths(args, excludeGlobs)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no JavaScript or TypeScript files matched %s", strings.Join(args, " "))
	}
	log.Debug().Int("files", len(files)).Int("rules", tr.Table().Len()).Msg("starting")

	var results *cache.Cache
	if cacheDir != "" {
		results, err = cache.Open(cacheDir)
		if err != nil {
			return err
		}
		defer results.Close()
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	out, err := processFiles(ctx, tr, results, cfg.Digest(), files, log)
	if err != nil {
		return err
	}

	return report(cmd, out, log)
}

func processFiles(ctx context.Context, tr *transform.Transformer, results *cache.Cache, digest []byte, files []string, log zerolog.Logger) ([]fileResult, error) {
	out := make([]fileResult, len(files))

	if jobs < 1 {
		jobs = 1
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)

	for i, path := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := processFile(tr, results, digest, path, log)
			if err != nil {
				log.Error().Str("path", path).Err(err).Msg("transform failed")
				return fmt.Errorf("%s: %w", path, err)
			}
			out[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func processFile(tr *transform.Transformer, results *cache.Cache, digest []byte, path string, log zerolog.Logger) (fileResult, error) {
	info, err := os.Stat(path)
	if err != nil {
		return fileResult{}, err
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return fileResult{}, fmt.Errorf("reading file: %w", err)
	}

	lang := parse.LangFromPath(path)
	res := fileResult{path: path, mode: info.Mode().Perm(), before: content}

	var key string
	if results != nil {
		key = cache.Key(digest, lang, content)
		after, changed, ok, err := results.Get(key)
		if err != nil {
			log.Warn().Str("path", path).Err(err).Msg("cache read failed")
		} else if ok {
			res.after, res.changed = after, changed
			log.Debug().Str("path", path).Bool("changed", changed).Bool("cached", true).Msg("processed")
			return res, nil
		}
	}

	after, changed, err := tr.Source(content, lang)
	if err != nil {
		return fileResult{}, err
	}
	res.after, res.changed = after, changed

	if results != nil {
		// Non-fatal, the next run just recomputes.
		if err := results.Put(key, after, changed); err != nil {
			log.Warn().Str("path", path).Err(err).Msg("cache write failed")
		}
	}

	log.Debug().Str("path", path).Bool("changed", changed).Bool("cached", false).Msg("processed")
	return res, nil
}

func report(cmd *cobra.Command, results []fileResult, log zerolog.Logger) error {
	stdout := cmd.OutOrStdout()
	changedCount := 0

	for _, r := range results {
		if !r.changed {
			continue
		}
		changedCount++

		switch {
		case writeFlag:
			if err := os.WriteFile(r.path, r.after, r.mode); err != nil {
				return fmt.Errorf("writing %s: %w", r.path, err)
			}
			log.Info().Str("path", r.path).Msg("rewritten")
		case diffFlag:
			writeUnifiedDiff(stdout, r.path, string(r.before), string(r.after))
		case checkFlag:
			fmt.Fprintln(stdout, r.path)
		default:
			if len(results) > 1 {
				fmt.Fprintf(stdout, "==> %s <==\n", r.path)
			}
			stdout.Write(r.after)
		}
	}

	if checkFlag && changedCount > 0 {
		return fmt.Errorf("%d file(s) would be rewritten", changedCount)
	}
	log.Debug().Int("changed", changedCount).Int("files", len(results)).Msg("done")
	return nil
}

// expandPaths resolves files, directories and doublestar globs into a sorted,
// de-duplicated list of source files.
func expandPaths(args, exclude []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string

	add := func(base, path string) error {
		path = filepath.Clean(path)
		if seen[path] || parse.LangFromPath(path) == "" {
			return nil
		}
		candidates := []string{path}
		if rel, err := filepath.Rel(base, path); err == nil {
			candidates = append(candidates, rel)
		}
		for _, pattern := range exclude {
			for _, candidate := range candidates {
				match, err := doublestar.PathMatch(pattern, candidate)
				if err != nil {
					return fmt.Errorf("invalid exclude pattern %q: %w", pattern, err)
				}
				if match {
					return nil
				}
			}
		}
		seen[path] = true
		files = append(files, path)
		return nil
	}

	for _, arg := range args {
		var matches []string
		base := arg
		info, err := os.Stat(arg)
		switch {
		case err == nil && info.IsDir():
			matches, err = doublestar.FilepathGlob(filepath.Join(arg, sourceGlob))
		case err == nil:
			base = filepath.Dir(arg)
			matches = []string{arg}
		default:
			root, _ := doublestar.SplitPattern(filepath.ToSlash(arg))
			base = filepath.FromSlash(root)
			matches, err = doublestar.FilepathGlob(arg)
		}
		if err != nil {
			return nil, fmt.Errorf("expanding %q: %w", arg, err)
		}
		for _, m := range matches {
			if err := add(base, m); err != nil {
				return nil, err
			}
		}
	}

	sort.Strings(files)
	return files, nil
}

func runCheckConfig(cmd *cobra.Command, args []string) error {
	_, tr, err := loadTransformer()
	if err != nil {
		return err
	}

	stdout := cmd.OutOrStdout()
	fmt.Fprintf(stdout, "%s: %d package rule(s)\n", resolveConfigPath(), tr.Table().Len())
	for i, entry := range tr.Table().Entries() {
		fmt.Fprintf(stdout, "%3d  %s\n", i+1, describeEntry(entry))
	}
	return nil
}

func describeEntry(entry pattern.Entry) string {
	var b strings.Builder
	b.WriteString(entry.Pattern)
	if entry.Rule.HasMembers() {
		fmt.Fprintf(&b, " -> %d member rule(s)", len(entry.Rule.Members))
		for _, m := range entry.Rule.Members {
			fmt.Fprintf(&b, "\n       %s -> %s", m.Pattern, m.Template)
		}
	} else {
		fmt.Fprintf(&b, " -> %s", entry.Rule.Template)
	}

	var flags []string
	if entry.Rule.PreventFullExport {
		flags = append(flags, "preventFullExport")
	}
	if entry.Rule.SkipDefaultConversion {
		flags = append(flags, "skipDefaultConversion")
	}
	if len(flags) > 0 {
		fmt.Fprintf(&b, " [%s]", strings.Join(flags, ", "))
	}
	return b.String()
}
