package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"
	"github.com/yuya-takeyama/unitysync/pkg/asset"
	"github.com/yuya-takeyama/unitysync/pkg/transfer"
)

// SyncResult represents the actual execution results
type SyncResult struct {
	Files   []ResultFile  `json:"files"`
	Errors  []ErrorFile   `json:"errors"`
	Summary ResultSummary `json:"summary"`
}

type ResultFile struct {
	Action string `json:"action"` // "copied", "removed"
	Source string `json:"source,omitempty"`
	Target string `json:"target"`
	Bytes  int64  `json:"bytes,omitempty"`
}

type ErrorFile struct {
	Action string `json:"action"`
	Target string `json:"target,omitempty"`
	Error  string `json:"error"`
}

type ResultSummary struct {
	Copied  int   `json:"copied"`
	Removed int   `json:"removed"`
	Bytes   int64 `json:"bytes"`
	Failed  int   `json:"failed"`
}

func newSyncResult(results []transfer.Result, runErr error) SyncResult {
	syncResult := SyncResult{
		Files:  []ResultFile{},
		Errors: []ErrorFile{},
	}

	for _, r := range results {
		switch r.Action {
		case transfer.ActionCopy:
			syncResult.Files = append(syncResult.Files, ResultFile{
				Action: "copied",
				Source: getAbsolutePath(r.Source),
				Target: getAbsolutePath(r.Target),
				Bytes:  r.Bytes,
			})
			syncResult.Summary.Copied++
			syncResult.Summary.Bytes += r.Bytes
		case transfer.ActionRemove:
			syncResult.Files = append(syncResult.Files, ResultFile{
				Action: "removed",
				Target: getAbsolutePath(r.Target),
			})
			syncResult.Summary.Removed++
		}
	}

	if runErr != nil {
		errorFile := ErrorFile{Action: "run", Error: runErr.Error()}
		var fsErr *asset.FilesystemError
		if errors.As(runErr, &fsErr) {
			errorFile = ErrorFile{
				Action: fsErr.Op,
				Target: getAbsolutePath(fsErr.Path),
				Error:  fsErr.Err.Error(),
			}
		}
		syncResult.Errors = append(syncResult.Errors, errorFile)
		syncResult.Summary.Failed++
	}

	return syncResult
}

func writeSyncResult(path string, result SyncResult) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	return nil
}

func getAbsolutePath(path string) string {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return path // fallback to original path
	}
	return absPath
}
