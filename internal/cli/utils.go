// Package cli formats command output for partnermap.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/hyperjump/partnermap/internal/lint"
	"github.com/hyperjump/partnermap/internal/models"
	"github.com/hyperjump/partnermap/internal/storage"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat accepts "text" or "json". The empty string means text.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(s) {
	case "", OutputText:
		return OutputText, nil
	case OutputJSON:
		return OutputJSON, nil
	}
	return "", fmt.Errorf("unknown output format %q (want text or json)", s)
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteSummary writes the build summary: the one-line "OK: ..." text, or a JSON object.
func WriteSummary(w io.Writer, s models.Summary, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, s)
	}
	_, err := fmt.Fprintln(w, s.String())
	return err
}

// Status describes the documents currently on disk.
// The catalog fields are set only when a catalog exists.
type Status struct {
	Summary        models.Summary       `json:"summary"`
	Carriers       []models.Carrier     `json:"carriers"`
	Outputs        []storage.OutputFile `json:"outputs"`
	DiskUsageBytes int64                `json:"disk_usage_bytes"`
	LastRun        *storage.Run         `json:"last_run,omitempty"`
	CatalogRuns    int64                `json:"catalog_runs,omitempty"`
	CatalogInSync  *bool                `json:"catalog_in_sync,omitempty"`
}

// WriteStatus writes st in the given format.
func WriteStatus(w io.Writer, st *Status, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, st)
	}
	fmt.Fprintf(w, "Carriers:   %d\n", st.Summary.Carriers)
	fmt.Fprintf(w, "Routes:     %d\n", st.Summary.Routes)
	fmt.Fprintf(w, "Locations:  %d\n", st.Summary.Locations)
	for _, c := range st.Carriers {
		fmt.Fprintf(w, "  %-24s %s  %d routes\n", c.Name, c.Color, c.Routes)
	}
	for _, f := range st.Outputs {
		if f.Exists {
			fmt.Fprintf(w, "Output:     %s (%s)\n", f.Path, FormatBytes(f.Bytes))
		} else {
			fmt.Fprintf(w, "Output:     %s (missing)\n", f.Path)
		}
	}
	fmt.Fprintf(w, "Disk usage: %s\n", FormatBytes(st.DiskUsageBytes))
	if st.LastRun != nil {
		fmt.Fprintf(w, "Last run:   %s at %s\n", st.LastRun.ID, st.LastRun.CreatedAt.Format(time.RFC3339))
	}
	if st.CatalogInSync != nil {
		state := "matches the documents"
		if !*st.CatalogInSync {
			state = "differs from the documents"
		}
		fmt.Fprintf(w, "Catalog:    %d runs, %s\n", st.CatalogRuns, state)
	}
	return nil
}

// WriteLint writes suspicious location pairs in the given format.
func WriteLint(w io.Writer, pairs []lint.Pair, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, pairs)
	}
	if len(pairs) == 0 {
		_, err := fmt.Fprintln(w, "No similar location names found.")
		return err
	}
	fmt.Fprintf(w, "%d similar location name pairs:\n", len(pairs))
	for _, p := range pairs {
		fmt.Fprintf(w, "  %d  %s  ~  %s\n", p.Distance, p.A, p.B)
	}
	return nil
}

// FormatBytes renders n with a binary unit, e.g. "1.5 KiB".
func FormatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
