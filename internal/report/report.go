// Package report renders run reports for people and for files.
package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/user/product-image-scraper/internal/entity"
	"gopkg.in/yaml.v2"
)

// Print writes the console summary: the download count, then every error
// entry in the order it was recorded.
func Print(w io.Writer, report *entity.RunReport) error {
	if _, err := fmt.Fprintf(w, "Downloads completed: %d\n", report.TotalDownloaded); err != nil {
		return err
	}
	if len(report.Errors) == 0 {
		return nil
	}
	if _, err := fmt.Fprintln(w, "Errors:"); err != nil {
		return err
	}
	for _, e := range report.Errors {
		if _, err := fmt.Fprintf(w, " - %s: %s\n", e.Reference, e.Message); err != nil {
			return err
		}
	}
	return nil
}

// WriteYAML writes the full report, per-row outcomes included, to path.
func WriteYAML(path string, report *entity.RunReport) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	enc := yaml.NewEncoder(f)
	if err := enc.Encode(report); err != nil {
		f.Close()
		return fmt.Errorf("encode report: %w", err)
	}
	if err := enc.Close(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
