// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package organize moves the files of a directory into subfolders named
// after each file's last-modified date.
package organize

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/pdiddy/filechores/pkg/types"
)

// Move is one planned relocation.
type Move struct {
	Src     string    `json:"src" yaml:"src"`
	Dst     string    `json:"dst" yaml:"dst"`
	Label   string    `json:"label" yaml:"label"`
	ModTime time.Time `json:"mod_time" yaml:"mod_time"`
}

// FileResult records the outcome for one file.
type FileResult struct {
	Move   `yaml:",inline"`
	Status types.FileStatus `json:"status" yaml:"status"`
	Error  string           `json:"error,omitempty" yaml:"error,omitempty"`
}

// Summary holds the outcome of an organize run.
type Summary struct {
	Moved   int          `json:"moved" yaml:"moved"`
	Skipped int          `json:"skipped" yaml:"skipped"`
	Planned int          `json:"planned" yaml:"planned"`
	Failed  int          `json:"failed" yaml:"failed"`
	Files   []FileResult `json:"files" yaml:"files"`
}

// Total returns the number of files processed.
func (s Summary) Total() int {
	return s.Moved + s.Skipped + s.Planned + s.Failed
}

func (s *Summary) record(fr FileResult) {
	switch fr.Status {
	case types.StatusMoved:
		s.Moved++
	case types.StatusSkipped:
		s.Skipped++
	case types.StatusPlanned:
		s.Planned++
	case types.StatusFailed:
		s.Failed++
	}
	s.Files = append(s.Files, fr)
}

// DateLabel formats t as a folder name in loc using layout.
func DateLabel(t time.Time, loc *time.Location, layout string) string {
	return t.In(loc).Format(layout)
}

// Plan lists dir once and returns a Move for every regular file, in
// directory-listing order. Symlinks that resolve to regular files count as
// files; directories and other entries are left alone.
func Plan(dir string, loc *time.Location, layout string) ([]Move, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading target directory %s: %w", dir, err)
	}

	var moves []Move
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		src := filepath.Join(dir, entry.Name())
		info, err := os.Stat(src)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) && entry.Type()&os.ModeSymlink != 0 {
				continue // dangling symlink
			}
			return nil, fmt.Errorf("inspecting %s: %w", src, err)
		}
		if !info.Mode().IsRegular() {
			continue
		}

		label := DateLabel(info.ModTime(), loc, layout)
		if err := types.CheckDateLabel(label); err != nil {
			return nil, fmt.Errorf("labelling %s: %w", src, err)
		}
		moves = append(moves, Move{
			Src:     src,
			Dst:     filepath.Join(dir, filepath.FromSlash(label), entry.Name()),
			Label:   label,
			ModTime: info.ModTime(),
		})
	}
	return moves, nil
}

// Apply carries out moves in order, creating each label directory before
// moving into it. It stops at the first failure and returns the summary so
// far with the error. With dryRun set nothing on disk changes.
func Apply(ctx context.Context, moves []Move, policy types.CollisionPolicy, dryRun bool, w io.Writer) (Summary, error) {
	var summary Summary
	for _, m := range moves {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		status, err := applyMove(m, policy, dryRun, w)
		fr := FileResult{Move: m, Status: status}
		if err != nil {
			fr.Error = err.Error()
		}
		summary.record(fr)
		if err != nil {
			printSummary(w, summary)
			return summary, err
		}
	}
	printSummary(w, summary)
	return summary, nil
}

func applyMove(m Move, policy types.CollisionPolicy, dryRun bool, w io.Writer) (types.FileStatus, error) {
	name := filepath.Base(m.Src)
	rel := filepath.Join(filepath.FromSlash(m.Label), name)

	fail := func(err error) (types.FileStatus, error) {
		fmt.Fprintf(w, "failed:  %s (%v)\n", name, err)
		return types.StatusFailed, err
	}

	if info, err := os.Lstat(m.Dst); err == nil {
		if info.IsDir() {
			return fail(fmt.Errorf("%s is a directory", m.Dst))
		}
		switch policy {
		case types.CollisionSkip:
			fmt.Fprintf(w, "skipped: %s (%s exists)\n", name, rel)
			return types.StatusSkipped, nil
		case types.CollisionError:
			return fail(fmt.Errorf("%s: %w", m.Dst, types.ErrDestinationExists))
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return fail(fmt.Errorf("checking %s: %w", m.Dst, err))
	}

	if dryRun {
		fmt.Fprintf(w, "planned: %s -> %s\n", name, rel)
		return types.StatusPlanned, nil
	}

	if err := os.MkdirAll(filepath.Dir(m.Dst), 0o755); err != nil {
		return fail(fmt.Errorf("creating %s: %w", filepath.Dir(m.Dst), err))
	}
	if err := moveFile(m.Src, m.Dst); err != nil {
		return fail(err)
	}

	fmt.Fprintf(w, "moved:   %s -> %s\n", name, rel)
	return types.StatusMoved, nil
}

// Organize plans and applies the moves for cfg.Dir.
func Organize(ctx context.Context, cfg types.OrganizeConfig, w io.Writer) (Summary, error) {
	if err := cfg.Validate(); err != nil {
		return Summary{}, err
	}
	loc, err := cfg.LoadLocation()
	if err != nil {
		return Summary{}, err
	}

	moves, err := Plan(cfg.Dir, loc, cfg.Layout)
	if err != nil {
		return Summary{}, err
	}
	if len(moves) == 0 {
		fmt.Fprintf(w, "no files to organize in %s\n", cfg.Dir)
		return Summary{}, nil
	}
	return Apply(ctx, moves, cfg.OnExisting, cfg.DryRun, w)
}

func printSummary(w io.Writer, s Summary) {
	fmt.Fprintf(w, "\nOrganize summary: %d moved, %d skipped, %d planned, %d failed (total: %d)\n",
		s.Moved, s.Skipped, s.Planned, s.Failed, s.Total())
}
