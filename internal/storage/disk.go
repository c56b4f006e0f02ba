package storage

import (
	"errors"
	"os"
)

// OutputFile describes one generated file on disk.
type OutputFile struct {
	Path   string `json:"path"`
	Bytes  int64  `json:"bytes"`
	Exists bool   `json:"exists"`
}

// StatOutputs reports the size of every non-empty path in order, plus their total.
// Missing files are reported with Exists false; other stat errors are returned.
func StatOutputs(paths ...string) ([]OutputFile, int64, error) {
	var (
		out   []OutputFile
		total int64
	)
	for _, p := range paths {
		if p == "" {
			continue
		}
		info, err := os.Stat(p)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				out = append(out, OutputFile{Path: p})
				continue
			}
			return nil, 0, err
		}
		if info.IsDir() {
			return nil, 0, &os.PathError{Op: "stat", Path: p, Err: errors.New("is a directory")}
		}
		out = append(out, OutputFile{Path: p, Bytes: info.Size(), Exists: true})
		total += info.Size()
	}
	return out, total, nil
}
