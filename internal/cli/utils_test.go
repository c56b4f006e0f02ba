package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/hyperjump/partnermap/internal/lint"
	"github.com/hyperjump/partnermap/internal/models"
	"github.com/hyperjump/partnermap/internal/storage"
)

func TestParseOutputFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    OutputFormat
		wantErr bool
	}{
		{"", OutputText, false},
		{"text", OutputText, false},
		{"json", OutputJSON, false},
		{"yaml", "", true},
	}
	for _, tt := range tests {
		got, err := ParseOutputFormat(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseOutputFormat(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestWriteSummary_text(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSummary(&buf, models.Summary{Carriers: 2, Routes: 4, Locations: 7}, OutputText); err != nil {
		t.Fatal(err)
	}
	if got := buf.String(); got != "OK: 2 carriers, 4 routes, 7 locations\n" {
		t.Errorf("text summary = %q", got)
	}
}

func TestWriteSummary_JSON(t *testing.T) {
	var buf bytes.Buffer
	want := models.Summary{Carriers: 1, Routes: 2, Locations: 3}
	if err := WriteSummary(&buf, want, OutputJSON); err != nil {
		t.Fatal(err)
	}
	var got models.Summary
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, buf.String())
	}
	if got != want {
		t.Errorf("decoded %+v, want %+v", got, want)
	}
}

func TestWriteStatus(t *testing.T) {
	inSync := false
	st := &Status{
		Summary:  models.Summary{Carriers: 1, Routes: 2, Locations: 3},
		Carriers: []models.Carrier{{Name: "АБВ", Color: "#1f77b4", Routes: 2}},
		Outputs: []storage.OutputFile{
			{Path: "data/routes.json", Bytes: 2048, Exists: true},
			{Path: "data/locations.json"},
		},
		DiskUsageBytes: 2048,
		LastRun: &storage.Run{
			ID:        "8f1c",
			CreatedAt: time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC),
		},
		CatalogRuns:   3,
		CatalogInSync: &inSync,
	}

	var text bytes.Buffer
	if err := WriteStatus(&text, st, OutputText); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"Routes:     2",
		"АБВ",
		"data/routes.json (2.0 KiB)",
		"data/locations.json (missing)",
		"Last run:   8f1c at 2026-10-01T12:00:00Z",
		"Catalog:    3 runs, differs from the documents",
	} {
		if !strings.Contains(text.String(), want) {
			t.Errorf("text status missing %q:\n%s", want, text.String())
		}
	}

	var js bytes.Buffer
	if err := WriteStatus(&js, st, OutputJSON); err != nil {
		t.Fatal(err)
	}
	var decoded Status
	if err := json.Unmarshal(js.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.DiskUsageBytes != 2048 || decoded.LastRun == nil || decoded.LastRun.ID != "8f1c" ||
		decoded.CatalogRuns != 3 || decoded.CatalogInSync == nil || *decoded.CatalogInSync {
		t.Errorf("decoded status = %+v", decoded)
	}
}

func TestWriteStatus_withoutCatalog(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteStatus(&buf, &Status{}, OutputJSON); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"last_run", "catalog_runs", "catalog_in_sync"} {
		if strings.Contains(buf.String(), key) {
			t.Errorf("%s should be omitted:\n%s", key, buf.String())
		}
	}
}

func TestWriteLint(t *testing.T) {
	pairs := []lint.Pair{{A: "Котлас", B: "Котлпс", Distance: 1}}

	var text bytes.Buffer
	if err := WriteLint(&text, pairs, OutputText); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(text.String(), "1  Котлас  ~  Котлпс") {
		t.Errorf("text lint = %q", text.String())
	}

	var none bytes.Buffer
	if err := WriteLint(&none, nil, OutputText); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(none.String(), "No similar") {
		t.Errorf("empty lint = %q", none.String())
	}

	var js bytes.Buffer
	if err := WriteLint(&js, pairs, OutputJSON); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(js.String(), `"a": "Котлас"`) {
		t.Errorf("JSON lint must keep names literal:\n%s", js.String())
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{5 * 1024 * 1024, "5.0 MiB"},
	}
	for _, tt := range tests {
		if got := FormatBytes(tt.n); got != tt.want {
			t.Errorf("FormatBytes(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}
