// SPDX-License-Identifier: MPL-2.0

// Package scaffold seeds a working directory with the pipeline files the
// launcher expects: the rendered nextflow.config, the base resource
// configuration and the citation record. The files are embedded at build
// time so `cruise init` works without network access.
package scaffold

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

//go:embed all:files
var filesFS embed.FS

// filesRoot is the directory inside filesFS that holds the scaffold tree.
const filesRoot = "files"

// LogDirName is created alongside the scaffold so the first launch has a
// place to write its Nextflow log.
const LogDirName = "log"

// ErrScaffoldConflict indicates that initialization would overwrite files
// that already exist in the target directory.
var ErrScaffoldConflict = errors.New("scaffold conflict")

// ConflictError reports the existing paths that block initialization.
type ConflictError struct {
	Dir   string
	Paths []string
}

func (e ConflictError) Error() string {
	return fmt.Sprintf("%d file(s) already exist in %s (first: %s)", len(e.Paths), e.Dir, e.Paths[0])
}

func (e ConflictError) Unwrap() error {
	return ErrScaffoldConflict
}

// Files returns the relative paths of every embedded scaffold file, sorted.
func Files() ([]string, error) {
	var paths []string
	err := fs.WalkDir(filesFS, filesRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(filesRoot, path)
		if err != nil {
			return err
		}
		paths = append(paths, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk embedded scaffold: %w", err)
	}
	sort.Strings(paths)
	return paths, nil
}

// Citation returns the embedded CITATION.bib contents.
func Citation() (string, error) {
	data, err := filesFS.ReadFile(filesRoot + "/assets/CITATION.bib")
	if err != nil {
		return "", fmt.Errorf("failed to read embedded citation: %w", err)
	}
	return string(data), nil
}

// Init writes the scaffold into dir and creates the log directory. It
// returns the relative paths it wrote. Unless force is set, Init refuses
// to overwrite existing files and reports them all in a ConflictError.
func Init(dir string, force bool) ([]string, error) {
	paths, err := Files()
	if err != nil {
		return nil, err
	}

	if !force {
		var conflicts []string
		for _, rel := range paths {
			if _, err := os.Stat(filepath.Join(dir, rel)); err == nil {
				conflicts = append(conflicts, rel)
			}
		}
		if len(conflicts) > 0 {
			return nil, ConflictError{Dir: dir, Paths: conflicts}
		}
	}

	for _, rel := range paths {
		data, err := filesFS.ReadFile(filepath.ToSlash(filepath.Join(filesRoot, rel)))
		if err != nil {
			return nil, fmt.Errorf("failed to read embedded file %s: %w", rel, err)
		}
		target := filepath.Join(dir, rel)
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory for %s: %w", rel, err)
		}
		if err := os.WriteFile(target, data, 0o644); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", rel, err)
		}
	}

	if err := os.MkdirAll(filepath.Join(dir, LogDirName), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create %s directory: %w", LogDirName, err)
	}

	return paths, nil
}
