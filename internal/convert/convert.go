// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert exports spreadsheets to PDF through an automation host.
// A host (headless LibreOffice or headless Chrome) is acquired once per run,
// used for every matching file in a directory, and released exactly once.
package convert

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/filechores/pkg/types"
)

// lockPrefix marks the owner files office suites leave next to open documents.
const lockPrefix = "~$"

// Converter exports one spreadsheet to a fixed-layout document.
type Converter interface {
	// Convert reads the spreadsheet at srcPath and writes the document to dstPath.
	Convert(ctx context.Context, srcPath, dstPath string) error
}

// Host is a Converter backed by an external automation process that must
// be released when the run ends.
type Host interface {
	Converter
	io.Closer
}

// HostOpener starts an automation host.
type HostOpener func(ctx context.Context) (Host, error)

// FileResult records the outcome for one spreadsheet.
type FileResult struct {
	Source string           `json:"source" yaml:"source"`
	Output string           `json:"output" yaml:"output"`
	Status types.FileStatus `json:"status" yaml:"status"`
	Error  string           `json:"error,omitempty" yaml:"error,omitempty"`
}

// BatchResult holds the outcome of a conversion run.
type BatchResult struct {
	Converted int          `json:"converted" yaml:"converted"`
	Skipped   int          `json:"skipped" yaml:"skipped"`
	Planned   int          `json:"planned" yaml:"planned"`
	Failed    int          `json:"failed" yaml:"failed"`
	Files     []FileResult `json:"files" yaml:"files"`
}

// Total returns the number of spreadsheets processed.
func (r BatchResult) Total() int {
	return r.Converted + r.Skipped + r.Planned + r.Failed
}

// HasFailures reports whether any spreadsheet failed conversion.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

func (r *BatchResult) record(fr FileResult) {
	switch fr.Status {
	case types.StatusConverted:
		r.Converted++
	case types.StatusSkipped:
		r.Skipped++
	case types.StatusPlanned:
		r.Planned++
	case types.StatusFailed:
		r.Failed++
	}
	r.Files = append(r.Files, fr)
}

// Discover returns the paths of entries in dir whose names end with ext,
// in directory-listing order. Directories, office lock files, and symlinks
// that do not resolve to a regular file are skipped.
func Discover(dir, ext string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading source directory %s: %w", dir, err)
	}

	var paths []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ext) || strings.HasPrefix(name, lockPrefix) {
			continue
		}
		p := filepath.Join(dir, name)
		if entry.Type()&os.ModeSymlink != 0 {
			info, err := os.Stat(p)
			if errors.Is(err, os.ErrNotExist) {
				continue // dangling symlink
			}
			if err != nil {
				return nil, fmt.Errorf("inspecting %s: %w", p, err)
			}
			if !info.Mode().IsRegular() {
				continue
			}
		}
		paths = append(paths, p)
	}
	return paths, nil
}

// OutputPath returns the document path for src: same directory and base
// name, with ext replaced by outExt.
func OutputPath(src, ext, outExt string) string {
	return strings.TrimSuffix(src, ext) + outExt
}

// ConvertFile converts src to dst, applying policy when dst already exists.
// With dryRun set it only reports what it would do.
func ConvertFile(ctx context.Context, c Converter, src, dst string, policy types.CollisionPolicy, dryRun bool, w io.Writer) (types.FileStatus, error) {
	name := filepath.Base(src)

	if _, err := os.Stat(dst); err == nil {
		switch policy {
		case types.CollisionSkip:
			fmt.Fprintf(w, "skipped:   %s (%s exists)\n", name, filepath.Base(dst))
			return types.StatusSkipped, nil
		case types.CollisionError:
			err := fmt.Errorf("%s: %w", dst, types.ErrDestinationExists)
			fmt.Fprintf(w, "failed:    %s (%v)\n", name, err)
			return types.StatusFailed, err
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		err = fmt.Errorf("checking output %s: %w", dst, err)
		fmt.Fprintf(w, "failed:    %s (%v)\n", name, err)
		return types.StatusFailed, err
	}

	if dryRun {
		fmt.Fprintf(w, "planned:   %s -> %s\n", name, filepath.Base(dst))
		return types.StatusPlanned, nil
	}

	if err := c.Convert(ctx, src, dst); err != nil {
		err = fmt.Errorf("converting %s: %w", name, err)
		fmt.Fprintf(w, "failed:    %s (%v)\n", name, err)
		return types.StatusFailed, err
	}

	fmt.Fprintf(w, "converted: %s -> %s\n", name, filepath.Base(dst))
	return types.StatusConverted, nil
}

// ConvertFiles runs ConvertFile over srcs in order and stops at the first
// failure, returning the counts gathered so far with the error.
func ConvertFiles(ctx context.Context, c Converter, srcs []string, cfg types.ConvertConfig, w io.Writer) (BatchResult, error) {
	var result BatchResult
	for _, src := range srcs {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		dst := OutputPath(src, cfg.Extension, cfg.OutputExtension)
		fileCtx, cancel := withTimeout(ctx, cfg)
		status, err := ConvertFile(fileCtx, c, src, dst, cfg.OnExisting, cfg.DryRun, w)
		cancel()

		fr := FileResult{Source: src, Output: dst, Status: status}
		if err != nil {
			fr.Error = err.Error()
		}
		result.record(fr)
		if err != nil {
			printSummary(w, result)
			return result, err
		}
	}
	printSummary(w, result)
	return result, nil
}

// ConvertDir converts every matching spreadsheet in cfg.Dir with c.
func ConvertDir(ctx context.Context, c Converter, cfg types.ConvertConfig, w io.Writer) (BatchResult, error) {
	srcs, err := Discover(cfg.Dir, cfg.Extension)
	if err != nil {
		return BatchResult{}, err
	}
	return ConvertFiles(ctx, c, srcs, cfg, w)
}

// Run discovers spreadsheets in cfg.Dir, opens one automation host, converts
// every file, and closes the host on every exit path. Dry runs and empty
// directories never start a host.
func Run(ctx context.Context, cfg types.ConvertConfig, open HostOpener, w io.Writer) (result BatchResult, err error) {
	if err := cfg.Validate(); err != nil {
		return BatchResult{}, err
	}

	srcs, err := Discover(cfg.Dir, cfg.Extension)
	if err != nil {
		return BatchResult{}, err
	}
	if len(srcs) == 0 {
		fmt.Fprintf(w, "no %s files in %s\n", cfg.Extension, cfg.Dir)
		return BatchResult{}, nil
	}

	if cfg.DryRun {
		return ConvertFiles(ctx, dryRunConverter{}, srcs, cfg, w)
	}

	host, err := open(ctx)
	if err != nil {
		return BatchResult{}, fmt.Errorf("starting %s host: %w", cfg.Backend, err)
	}
	defer func() {
		if cerr := host.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("closing %s host: %w", cfg.Backend, cerr))
		}
	}()

	return ConvertFiles(ctx, host, srcs, cfg, w)
}

func withTimeout(ctx context.Context, cfg types.ConvertConfig) (context.Context, context.CancelFunc) {
	if cfg.Timeout > 0 {
		return context.WithTimeout(ctx, cfg.Timeout)
	}
	return context.WithCancel(ctx)
}

func printSummary(w io.Writer, r BatchResult) {
	fmt.Fprintf(w, "\nConvert summary: %d converted, %d skipped, %d planned, %d failed (total: %d)\n",
		r.Converted, r.Skipped, r.Planned, r.Failed, r.Total())
}

// dryRunConverter stands in for a host during dry runs; ConvertFile never
// reaches it.
type dryRunConverter struct{}

func (dryRunConverter) Convert(context.Context, string, string) error {
	return errors.New("dry run does not convert")
}
