package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/chazu/knitmesh/internal/config"
)

// writeResult encodes result as JSON to out.Path, or to stdout when the
// path is empty.
func writeResult(out config.OutputConfig, result EvalResult, stdout io.Writer) error {
	w := stdout
	if out.Path != "" {
		f, err := os.Create(out.Path)
		if err != nil {
			return fmt.Errorf("creating output: %w", err)
		}
		defer f.Close()
		w = f
	}

	enc := json.NewEncoder(w)
	if out.Pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	return nil
}
