// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package organize

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/filechores/pkg/types"
)

func writeFileAt(t *testing.T, dir, name, content string, mod time.Time) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	require.NoError(t, os.Chtimes(p, mod, mod))
	return p
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

func testConfig(dir string) types.OrganizeConfig {
	return types.OrganizeConfig{
		Dir:        dir,
		Layout:     types.DefaultDateLayout,
		Location:   "UTC",
		OnExisting: types.CollisionError,
	}
}

func TestDateLabel(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	ts := time.Date(2023, 6, 1, 20, 30, 0, 0, time.UTC)
	tests := []struct {
		name   string
		loc    *time.Location
		layout string
		want   string
	}{
		{name: "utc", loc: time.UTC, layout: types.DefaultDateLayout, want: "2023-06-01"},
		{name: "zone rolls the date forward", loc: tokyo, layout: types.DefaultDateLayout, want: "2023-06-02"},
		{name: "nested layout", loc: time.UTC, layout: "2006/01", want: "2023/06"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DateLabel(ts, tt.loc, tt.layout))
		})
	}
}

func TestOrganize_ReportScenario(t *testing.T) {
	root := t.TempDir()
	writeFileAt(t, root, "report.txt", "q2 numbers", day(2023, 6, 1))

	var log bytes.Buffer
	summary, err := Organize(context.Background(), testConfig(root), &log)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Moved)
	assert.FileExists(t, filepath.Join(root, "2023-06-01", "report.txt"))
	assert.NoFileExists(t, filepath.Join(root, "report.txt"))

	data, err := os.ReadFile(filepath.Join(root, "2023-06-01", "report.txt"))
	require.NoError(t, err)
	assert.Equal(t, "q2 numbers", string(data))
	assert.Contains(t, log.String(), "moved:")
	assert.Contains(t, log.String(), "Organize summary:")
}

func TestOrganize_GroupsByDateAndLeavesDirectories(t *testing.T) {
	root := t.TempDir()
	writeFileAt(t, root, "a.txt", "a", day(2023, 6, 1))
	writeFileAt(t, root, "b.txt", "b", day(2023, 6, 1))
	writeFileAt(t, root, "c.jpg", "c", day(2024, 1, 15))

	sub := filepath.Join(root, "photos")
	require.NoError(t, os.Mkdir(sub, 0o755))
	writeFileAt(t, sub, "inner.txt", "i", day(2022, 3, 3))

	var log bytes.Buffer
	summary, err := Organize(context.Background(), testConfig(root), &log)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Moved)

	assert.FileExists(t, filepath.Join(root, "2023-06-01", "a.txt"))
	assert.FileExists(t, filepath.Join(root, "2023-06-01", "b.txt"))
	assert.FileExists(t, filepath.Join(root, "2024-01-15", "c.jpg"))

	// Directories are neither moved nor descended into.
	assert.FileExists(t, filepath.Join(sub, "inner.txt"))
	assert.NoDirExists(t, filepath.Join(root, "2022-03-03"))
}

func TestOrganize_ExistingLabelDirectory(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, "2023-06-01"), 0o755))
	writeFileAt(t, root, "report.txt", "r", day(2023, 6, 1))

	var log bytes.Buffer
	_, err := Organize(context.Background(), testConfig(root), &log)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(root, "2023-06-01", "report.txt"))
}

func TestOrganize_NestedLayoutCreatesParents(t *testing.T) {
	root := t.TempDir()
	writeFileAt(t, root, "report.txt", "r", day(2023, 6, 1))

	cfg := testConfig(root)
	cfg.Layout = "2006/01/02"

	var log bytes.Buffer
	_, err := Organize(context.Background(), cfg, &log)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(root, "2023", "06", "01", "report.txt"))
}

func TestOrganize_Collisions(t *testing.T) {
	tests := []struct {
		name       string
		policy     types.CollisionPolicy
		wantStatus types.FileStatus
		wantErr    error
		wantDest   string
		wantSrc    bool
	}{
		{name: "error", policy: types.CollisionError, wantStatus: types.StatusFailed, wantErr: types.ErrDestinationExists, wantDest: "old", wantSrc: true},
		{name: "skip", policy: types.CollisionSkip, wantStatus: types.StatusSkipped, wantDest: "old", wantSrc: true},
		{name: "overwrite", policy: types.CollisionOverwrite, wantStatus: types.StatusMoved, wantDest: "new", wantSrc: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			label := filepath.Join(root, "2023-06-01")
			require.NoError(t, os.Mkdir(label, 0o755))
			require.NoError(t, os.WriteFile(filepath.Join(label, "report.txt"), []byte("old"), 0o644))
			writeFileAt(t, root, "report.txt", "new", day(2023, 6, 1))

			cfg := testConfig(root)
			cfg.OnExisting = tt.policy

			var log bytes.Buffer
			summary, err := Organize(context.Background(), cfg, &log)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr), "error = %v", err)
			} else {
				require.NoError(t, err)
			}

			require.Len(t, summary.Files, 1)
			assert.Equal(t, tt.wantStatus, summary.Files[0].Status)

			data, err := os.ReadFile(filepath.Join(label, "report.txt"))
			require.NoError(t, err)
			assert.Equal(t, tt.wantDest, string(data))

			_, statErr := os.Stat(filepath.Join(root, "report.txt"))
			assert.Equal(t, tt.wantSrc, statErr == nil)
		})
	}
}

func TestOrganize_StopsAtFirstFailure(t *testing.T) {
	root := t.TempDir()
	// A regular file named like the label blocks creation of that directory.
	writeFileAt(t, root, "2023-06-01", "blocker", day(2023, 6, 1))
	writeFileAt(t, root, "report.txt", "r", day(2023, 6, 1))

	var log bytes.Buffer
	summary, err := Organize(context.Background(), testConfig(root), &log)
	require.Error(t, err)
	assert.Equal(t, 1, summary.Failed)
	assert.Len(t, summary.Files, 1, "nothing runs after the first failure")
	assert.FileExists(t, filepath.Join(root, "report.txt"))
}

func TestOrganize_DryRun(t *testing.T) {
	root := t.TempDir()
	writeFileAt(t, root, "report.txt", "r", day(2023, 6, 1))

	cfg := testConfig(root)
	cfg.DryRun = true

	var log bytes.Buffer
	summary, err := Organize(context.Background(), cfg, &log)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Planned)
	assert.FileExists(t, filepath.Join(root, "report.txt"))
	assert.NoDirExists(t, filepath.Join(root, "2023-06-01"))
	assert.Contains(t, log.String(), "planned: report.txt -> "+filepath.Join("2023-06-01", "report.txt"))
}

func TestOrganize_MissingDirectory(t *testing.T) {
	var log bytes.Buffer
	_, err := Organize(context.Background(), testConfig(filepath.Join(t.TempDir(), "missing")), &log)
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestOrganize_InvalidConfig(t *testing.T) {
	cfg := testConfig(t.TempDir())
	cfg.Location = "Mars/Olympus_Mons"

	var log bytes.Buffer
	_, err := Organize(context.Background(), cfg, &log)
	require.Error(t, err)
}

func TestPlan_Symlinks(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need extra privileges on windows")
	}
	root := t.TempDir()
	other := t.TempDir()
	target := writeFileAt(t, other, "target.txt", "t", day(2023, 6, 1))

	require.NoError(t, os.Symlink(target, filepath.Join(root, "link.txt")))
	require.NoError(t, os.Symlink(filepath.Join(other, "gone.txt"), filepath.Join(root, "dangling.txt")))
	require.NoError(t, os.Symlink(other, filepath.Join(root, "dirlink")))

	moves, err := Plan(root, time.UTC, types.DefaultDateLayout)
	require.NoError(t, err)
	require.Len(t, moves, 1)
	assert.Equal(t, "link.txt", filepath.Base(moves[0].Src))
	assert.Equal(t, "2023-06-01", moves[0].Label)
}

func TestApply_CancelledContext(t *testing.T) {
	root := t.TempDir()
	writeFileAt(t, root, "report.txt", "r", day(2023, 6, 1))
	moves, err := Plan(root, time.UTC, types.DefaultDateLayout)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var log bytes.Buffer
	_, err = Apply(ctx, moves, types.CollisionError, false, &log)
	assert.ErrorIs(t, err, context.Canceled)
	assert.FileExists(t, filepath.Join(root, "report.txt"))
}

func TestCopyFile_PreservesModTime(t *testing.T) {
	dir := t.TempDir()
	mod := day(2021, 2, 3)
	src := writeFileAt(t, dir, "a.txt", "payload", mod)
	dst := filepath.Join(dir, "b.txt")

	require.NoError(t, copyFile(src, dst))

	info, err := os.Stat(dst)
	require.NoError(t, err)
	assert.True(t, info.ModTime().Equal(mod), "mod time = %v, want %v", info.ModTime(), mod)
	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))
}

func TestCopyFile_RecreatesSymlink(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need extra privileges on windows")
	}
	dir := t.TempDir()
	target := writeFileAt(t, t.TempDir(), "target.txt", "payload", day(2021, 2, 3))
	src := filepath.Join(dir, "link.txt")
	require.NoError(t, os.Symlink(target, src))
	dst := filepath.Join(dir, "moved.txt")

	require.NoError(t, copyFile(src, dst))

	info, err := os.Lstat(dst)
	require.NoError(t, err)
	assert.NotZero(t, info.Mode()&os.ModeSymlink, "destination is a link, not a copy")
	got, err := os.Readlink(dst)
	require.NoError(t, err)
	assert.Equal(t, target, got)
}

func TestPlan_RejectsLabelsOutsideDirectory(t *testing.T) {
	for _, layout := range []string{"../2006", ".", "2006/../.."} {
		t.Run(layout, func(t *testing.T) {
			parent := t.TempDir()
			root := filepath.Join(parent, "inbox")
			require.NoError(t, os.Mkdir(root, 0o755))
			writeFileAt(t, root, "report.txt", "r", day(2023, 6, 1))

			_, err := Plan(root, time.UTC, layout)
			require.Error(t, err)

			cfg := testConfig(root)
			cfg.Layout = layout
			var log bytes.Buffer
			_, err = Organize(context.Background(), cfg, &log)
			require.Error(t, err)

			assert.FileExists(t, filepath.Join(root, "report.txt"))
			assert.NoDirExists(t, filepath.Join(parent, "2023"))
		})
	}
}
