package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/artpar/dcompose/internal/core/compose"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	okColor   = color.New(color.FgGreen)
	warnColor = color.New(color.FgYellow)
	failColor = color.New(color.FgRed)
)

// app carries what every command needs once the configuration is loaded.
type app struct {
	stdout io.Writer
	stderr io.Writer

	configPath string
	file       string
	envFile    string
	noColor    bool

	cfg    *Config
	logger *slog.Logger
}

// =============================================================================
// Root Command
// =============================================================================

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "dcompose",
		Short:         "Read, check and rewrite docker-compose version 2 files",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "path to config file")
	flags.StringVarP(&a.file, "file", "f", "docker-compose.yml", "compose file")
	flags.StringVar(&a.envFile, "env-file", "", "file to read interpolation variables from")
	flags.BoolVar(&a.noColor, "no-color", false, "disable colored output")

	root.AddCommand(
		newFmtCmd(a),
		newCheckCmd(a),
		newVarsCmd(a),
		newResolveCmd(a),
		newEnvCmd(a),
		newServicesCmd(a),
		newVersionCmd(a),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := LoadConfig(a.configPath)
	if err != nil {
		return &ConfigError{Err: err}
	}
	if f := cmd.Flag("env-file"); f != nil && f.Changed {
		cfg.Interpolation.EnvFile = a.envFile
	}
	if a.noColor {
		cfg.Output.Color = false
	}
	if !cfg.Output.Color {
		color.NoColor = true
	}

	a.cfg = cfg
	a.logger = SetupLogger(cfg, a.stderr)
	a.logger.Debug("configuration loaded",
		"config", a.configPath,
		"env_file", cfg.Interpolation.EnvFile,
		"use_environment", cfg.Interpolation.UseEnvironment,
	)
	return nil
}

func (a *app) printError(err error) {
	failColor.Fprintf(a.stderr, "error: %v\n", err)
}

// files returns the positional arguments, or the --file default.
func (a *app) files(args []string) []string {
	if len(args) == 0 {
		return []string{a.file}
	}
	return args
}

// lookup builds the variable source for interpolation: the process
// environment first, then the configured env file.
func (a *app) lookup() (compose.Lookup, error) {
	var lookups []compose.Lookup
	if a.cfg.Interpolation.UseEnvironment {
		lookups = append(lookups, compose.EnvLookup())
	}
	if path := a.cfg.Interpolation.EnvFile; path != "" {
		env, err := compose.LoadEnvFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			a.logger.Debug("env file not found, skipping", "path", path)
		case err != nil:
			return nil, err
		default:
			a.logger.Debug("env file loaded", "path", path, "variables", env.Len())
			lookups = append(lookups, env.Lookup())
		}
	}
	return compose.ChainLookup(lookups...), nil
}

// loadResolved loads the --file compose file and interpolates it.
func (a *app) loadResolved() (*compose.File, compose.Lookup, error) {
	f, err := compose.LoadFile(a.file)
	if err != nil {
		return nil, nil, err
	}
	lookup, err := a.lookup()
	if err != nil {
		return nil, nil, err
	}
	resolved, err := f.Resolve(lookup)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", a.file, err)
	}
	return resolved, lookup, nil
}

// =============================================================================
// fmt
// =============================================================================

func newFmtCmd(a *app) *cobra.Command {
	var write bool

	cmd := &cobra.Command{
		Use:   "fmt [file...]",
		Short: "Print compose files in normalized form",
		Long: "Parses each file and prints it back with sorted keys and shorthand forms " +
			"wherever they lose nothing. Interpolation syntax is kept as written.",
		RunE: func(cmd *cobra.Command, args []string) error {
			paths := a.files(args)
			for i, path := range paths {
				f, err := compose.LoadFile(path)
				if err != nil {
					return err
				}
				out, err := f.Marshal()
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}

				if write {
					if err := writeFile(path, out); err != nil {
						return err
					}
					a.logger.Info("file formatted", "path", path)
					continue
				}
				if i > 0 {
					fmt.Fprintln(a.stdout, "---")
				}
				if _, err := a.stdout.Write(out); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&write, "write", "w", false, "write the result back to the file")
	return cmd
}

// writeFile replaces path's content and keeps its permissions.
func writeFile(path string, content []byte) error {
	mode := fs.FileMode(0644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}
	if err := os.WriteFile(path, content, mode); err != nil {
		return &compose.IOError{Op: "write", Path: path, Err: err}
	}
	return nil
}

// =============================================================================
// check
// =============================================================================

type checkResult struct {
	path     string
	services int
	err      error
}

func newCheckCmd(a *app) *cobra.Command {
	var resolve bool

	cmd := &cobra.Command{
		Use:   "check [file...]",
		Short: "Validate compose files",
		Long: "Parses every file, and with --resolve also interpolates it, reporting each " +
			"result. Files are checked concurrently.",
		RunE: func(cmd *cobra.Command, args []string) error {
			var lookup compose.Lookup
			if resolve {
				var err error
				if lookup, err = a.lookup(); err != nil {
					return err
				}
			}

			failed := 0
			for _, r := range a.checkFiles(cmd.Context(), a.files(args), lookup) {
				if r.err != nil {
					failed++
					failColor.Fprintf(a.stdout, "FAIL %s: %v\n", r.path, r.err)
					continue
				}
				okColor.Fprintf(a.stdout, "ok   %s (%d services)\n", r.path, r.services)
			}
			if failed > 0 {
				return errCheckFailed
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&resolve, "resolve", false, "also interpolate variables")
	return cmd
}

// checkFiles checks paths with at most check.concurrency files in flight.
// Results come back in the order of paths.
func (a *app) checkFiles(ctx context.Context, paths []string, lookup compose.Lookup) []checkResult {
	results := make([]checkResult, len(paths))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(a.cfg.Check.Concurrency)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			results[i] = checkFile(gCtx, path, lookup)
			a.logger.Debug("file checked", "path", path, "ok", results[i].err == nil)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func checkFile(ctx context.Context, path string, lookup compose.Lookup) checkResult {
	if err := ctx.Err(); err != nil {
		return checkResult{path: path, err: err}
	}
	f, err := compose.LoadFile(path)
	if err != nil {
		return checkResult{path: path, err: err}
	}
	if lookup != nil {
		if _, err := f.Resolve(lookup); err != nil {
			return checkResult{path: path, err: err}
		}
	}
	return checkResult{path: path, services: len(f.Services)}
}

// =============================================================================
// vars
// =============================================================================

func newVarsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "vars",
		Short: "List the variables a compose file references",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := compose.ReadFile(a.file)
			if err != nil {
				return err
			}
			names, err := compose.ExtractVariables(content)
			if err != nil {
				return fmt.Errorf("%s: %w", a.file, err)
			}
			lookup, err := a.lookup()
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(a.stdout, 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "NAME\tSTATUS")
			for _, name := range names {
				if _, ok := lookup(name); ok {
					fmt.Fprintf(w, "%s\tset\n", name)
				} else {
					fmt.Fprintf(w, "%s\t%s\n", name, warnColor.Sprint("unset"))
				}
			}
			return w.Flush()
		},
	}
}

// =============================================================================
// resolve
// =============================================================================

func newResolveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve",
		Short: "Print a compose file with every variable substituted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, _, err := a.loadResolved()
			if err != nil {
				return err
			}
			out, err := f.Marshal()
			if err != nil {
				return err
			}
			_, err = a.stdout.Write(out)
			return err
		},
	}
}

// =============================================================================
// env
// =============================================================================

func newEnvCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "env SERVICE",
		Short: "Print the environment a service's containers start with",
		Long: "Merges the service's env_file entries and its environment: section, in that " +
			"order. Keys without a value are taken from the interpolation variables and " +
			"left out when unset.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, lookup, err := a.loadResolved()
			if err != nil {
				return err
			}
			svc, ok := f.Services[args[0]]
			if !ok || svc == nil {
				return fmt.Errorf("no such service: %s", args[0])
			}

			env, err := svc.MergedEnvironment(filepath.Dir(a.file))
			if err != nil {
				return err
			}
			for _, key := range env.Keys() {
				v := env[key]
				if v == nil {
					host, ok := lookup(key)
					if !ok {
						a.logger.Debug("variable not set, skipping", "key", key)
						continue
					}
					fmt.Fprintf(a.stdout, "%s=%s\n", key, host)
					continue
				}
				value, err := v.Value()
				if err != nil {
					return err
				}
				fmt.Fprintf(a.stdout, "%s=%s\n", key, value)
			}
			return nil
		},
	}
}

// =============================================================================
// services
// =============================================================================

func newServicesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "services",
		Short: "List services in the order they start",
		Long: "Prints one service per line, each after the services it depends on " +
			"through depends_on or links.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, _, err := a.loadResolved()
			if err != nil {
				return err
			}
			order, err := f.StartOrder()
			if err != nil {
				return fmt.Errorf("%s: %w", a.file, err)
			}
			a.logger.Debug("start order computed", "services", len(order))
			for _, name := range order {
				fmt.Fprintln(a.stdout, name)
			}
			return nil
		},
	}
}

// =============================================================================
// version
// =============================================================================

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(a.stdout, "dcompose %s (built %s)\n", Version, BuildTime)
		},
	}
}
