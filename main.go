// Command knitmesh evaluates a pattern script and writes one triangle mesh
// per stitch as JSON.
//
// Usage:
//
//	knitmesh [-config path] [-debug] [-workers n] [-o out.json] script.knit
//	knitmesh [flags] -save-config path
//
// With no script argument, or with "-", the script is read from stdin.
// -save-config writes the merged configuration instead of evaluating.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/chazu/knitmesh/internal/config"
	"github.com/chazu/knitmesh/internal/logger"
)

// errEvaluation reports a run whose result carries errors. The result is
// still written.
var errEvaluation = errors.New("evaluation reported errors")

func main() {
	// Parse CLI flags first
	config.ParseFlags()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}

	logger.Sugar.Debugf("Config: %+v", cfg)

	if target := config.SaveConfigPath(); target != "" {
		path, err := saveConfig(cfg, target)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Config written to %s\n", path)
		logger.Sync()
		return
	}

	err = run(cfg, config.Args(), os.Stdin, os.Stdout)
	if err != nil && !errors.Is(err, errEvaluation) {
		logger.Error("knitmesh failed", zap.Error(err))
	}
	logger.Sync()
	if err != nil {
		os.Exit(1)
	}
}

// run evaluates the script named by args (or stdin) and writes the result
// to cfg.Output.Path, or stdout when the path is empty.
func run(cfg *config.Config, args []string, stdin io.Reader, stdout io.Writer) error {
	if len(args) > 1 {
		return fmt.Errorf("expected at most one script, got %d", len(args))
	}
	source, name, err := readSource(args, stdin)
	if err != nil {
		return err
	}
	logger.Debug("evaluating script", zap.String("script", name), zap.Int("bytes", len(source)))

	result := NewAppWithConfig(cfg).Evaluate(source)

	if err := writeResult(cfg.Output, result, stdout); err != nil {
		return err
	}
	if len(result.Errors) > 0 {
		for _, e := range result.Errors {
			fmt.Fprintf(os.Stderr, "%s: %s\n", name, formatError(e))
		}
		return errEvaluation
	}
	return nil
}

// saveConfig writes cfg to target and returns the path written. A target
// of "-" selects the default config location.
func saveConfig(cfg *config.Config, target string) (string, error) {
	if target == "-" {
		if err := cfg.Save(); err != nil {
			return "", fmt.Errorf("saving config: %w", err)
		}
		return config.DefaultPath(), nil
	}
	if err := cfg.SaveTo(target); err != nil {
		return "", fmt.Errorf("saving config: %w", err)
	}
	return target, nil
}

// readSource returns the script text and a display name for it.
func readSource(args []string, stdin io.Reader) (string, string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), "<stdin>", nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", "", fmt.Errorf("reading script: %w", err)
	}
	return string(data), args[0], nil
}

func formatError(e EvalErrorData) string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}
