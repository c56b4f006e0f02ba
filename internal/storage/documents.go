// Package storage writes and reads the generated documents and the optional SQLite catalog.
package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hyperjump/partnermap/internal/models"
)

// encodeJSON renders v with two-space indentation, leaving non-ASCII text and HTML characters as-is.
func encodeJSON(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteDocuments writes the routes and locations documents. Both are staged in
// temporary files next to their targets and only renamed into place once both
// have been written, so a failure while staging leaves existing outputs untouched.
func WriteDocuments(routesPath, locationsPath string, res *models.Result) error {
	routes, err := encodeJSON(res.Routes)
	if err != nil {
		return fmt.Errorf("encode routes: %w", err)
	}
	locations, err := encodeJSON(res.Locations)
	if err != nil {
		return fmt.Errorf("encode locations: %w", err)
	}

	routesTmp, err := stage(routesPath, routes)
	if err != nil {
		return fmt.Errorf("stage routes: %w", err)
	}
	locationsTmp, err := stage(locationsPath, locations)
	if err != nil {
		_ = os.Remove(routesTmp)
		return fmt.Errorf("stage locations: %w", err)
	}

	if err := os.Rename(routesTmp, routesPath); err != nil {
		_ = os.Remove(routesTmp)
		_ = os.Remove(locationsTmp)
		return fmt.Errorf("replace routes: %w", err)
	}
	if err := os.Rename(locationsTmp, locationsPath); err != nil {
		_ = os.Remove(locationsTmp)
		return fmt.Errorf("replace locations: %w", err)
	}
	return nil
}

// stage writes data to a temporary file in the directory of target and returns its path.
func stage(target string, data []byte) (string, error) {
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	f, err := os.CreateTemp(dir, "."+filepath.Base(target)+".tmp-*")
	if err != nil {
		return "", err
	}
	tmp := f.Name()
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return "", err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return "", err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return "", err
	}
	if err := os.Chmod(tmp, 0644); err != nil {
		_ = os.Remove(tmp)
		return "", err
	}
	return tmp, nil
}

// ReadDocuments loads previously written documents.
func ReadDocuments(routesPath, locationsPath string) (*models.Result, error) {
	var res models.Result
	if err := readJSON(routesPath, &res.Routes); err != nil {
		return nil, fmt.Errorf("read routes: %w", err)
	}
	if err := readJSON(locationsPath, &res.Locations); err != nil {
		return nil, fmt.Errorf("read locations: %w", err)
	}
	return &res, nil
}

func readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
