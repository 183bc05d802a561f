package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/srcforge/pkgparse/internal/models"
	"github.com/srcforge/pkgparse/internal/parser"
	"github.com/srcforge/pkgparse/internal/scanner"
	"github.com/srcforge/pkgparse/internal/script"
	"github.com/srcforge/pkgparse/internal/srcinfo"
)

type parseConfig struct {
	interpreter    string
	workDir        string
	singleTask     bool
	timeout        time.Duration
	format         string
	makepkgLibrary string
	makepkgConfig  string
	scriptPath     string
}

// NewParseCmd creates the parse command
func NewParseCmd() *cobra.Command {
	var config parseConfig

	cmd := &cobra.Command{
		Use:   "parse [recipe|directory|snapshot]...",
		Short: "Evaluate recipes and print their metadata",
		Long: `Evaluates every given recipe through one evaluator process and prints
the decoded metadata. Directory arguments are scanned recursively for
PKGBUILD files; snapshot archives are unpacked first.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if config.format != "srcinfo" && config.format != "json" {
				return &models.ConfigError{Reason: fmt.Sprintf("unknown output format %q", config.format)}
			}
			return runParse(cmd.Context(), &config, args)
		},
	}

	cmd.Flags().StringVarP(&config.format, "format", "f", "srcinfo", "Output format (srcinfo, json)")
	cmd.Flags().StringVar(&config.interpreter, "interpreter", parser.DefaultInterpreter, "Interpreter running the evaluation script")
	cmd.Flags().StringVar(&config.workDir, "work-dir", "", "Working directory of the evaluator")
	cmd.Flags().BoolVar(&config.singleTask, "single-task", false, "Drive the evaluator pipes from a single task")
	cmd.Flags().DurationVar(&config.timeout, "timeout", 0, "Batch evaluation time limit (0 = none)")
	cmd.Flags().StringVar(&config.makepkgLibrary, "makepkg-library", "", "Path to the makepkg support library")
	cmd.Flags().StringVar(&config.makepkgConfig, "makepkg-config", "", "Path to the makepkg configuration file")
	cmd.Flags().StringVar(&config.scriptPath, "script", "", "Use a pre-assembled evaluation script")

	return cmd
}

func runParse(ctx context.Context, config *parseConfig, args []string) error {
	paths, err := collectRecipes(ctx, args)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		logrus.Warn("No recipes found")
		return nil
	}
	logrus.Infof("Evaluating %d recipes", len(paths))

	p, err := newParser(config)
	if err != nil {
		return err
	}
	defer p.Close()

	results, err := p.ParseBatch(ctx, paths)
	if err != nil {
		return fmt.Errorf("batch evaluation failed: %w", err)
	}

	failed := 0
	for i, result := range results {
		if result.Err != nil {
			logrus.Errorf("Failed to parse %s: %v", paths[i], result.Err)
			failed++
		}
	}
	if err := printResults(config.format, paths, results); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d recipes failed", failed, len(paths))
	}
	return nil
}

// collectRecipes expands the command arguments into recipe file paths:
// directories are scanned, snapshot archives are unpacked to a temp dir
func collectRecipes(ctx context.Context, args []string) ([]string, error) {
	var paths []string
	sc := scanner.NewFileSystemScanner()
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", arg, err)
		}
		switch {
		case info.IsDir():
			found, err := sc.Scan(ctx, arg)
			if err != nil {
				return nil, err
			}
			for _, recipe := range found {
				paths = append(paths, recipe.Path)
			}
		case scanner.IsSnapshotName(arg):
			dest, err := os.MkdirTemp("", "pkgparse-snapshot-")
			if err != nil {
				return nil, fmt.Errorf("failed to create extraction dir: %w", err)
			}
			extracted, err := scanner.ExtractRecipes(arg, dest)
			if err != nil {
				return nil, fmt.Errorf("failed to unpack %s: %w", arg, err)
			}
			logrus.Infof("Unpacked %d recipes from %s", len(extracted), arg)
			paths = append(paths, extracted...)
		default:
			paths = append(paths, arg)
		}
	}
	return paths, nil
}

func newParser(config *parseConfig) (*parser.Parser, error) {
	opts := parser.Options{
		Interpreter: config.interpreter,
		WorkDir:     config.workDir,
		SingleTask:  config.singleTask,
		Timeout:     config.timeout,
	}
	if config.scriptPath != "" {
		return &parser.Parser{Script: script.FromPath(config.scriptPath), Options: opts}, nil
	}
	cfg := script.DefaultConfig()
	if config.makepkgLibrary != "" {
		cfg.MakepkgLibrary = config.makepkgLibrary
	}
	if config.makepkgConfig != "" {
		cfg.MakepkgConfig = config.makepkgConfig
	}
	s, err := script.BuildTemp(cfg)
	if err != nil {
		return nil, err
	}
	return &parser.Parser{Script: s, Options: opts}, nil
}

// parsedRecipe is the JSON shape of one result
type parsedRecipe struct {
	Path   string         `json:"path"`
	Recipe *models.Recipe `json:"recipe,omitempty"`
	Error  string         `json:"error,omitempty"`
}

func printResults(format string, paths []string, results []parser.Result) error {
	switch format {
	case "json":
		out := make([]parsedRecipe, len(results))
		for i, result := range results {
			out[i] = parsedRecipe{Path: paths[i], Recipe: result.Recipe}
			if result.Err != nil {
				out[i].Error = result.Err.Error()
			}
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	default:
		for _, result := range results {
			if result.Err != nil {
				continue
			}
			os.Stdout.Write(srcinfo.Render(result.Recipe))
			fmt.Println()
		}
		return nil
	}
}
