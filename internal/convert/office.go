// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"strings"

	"github.com/pdiddy/filechores/internal/container"
	"github.com/pdiddy/filechores/pkg/types"
)

const (
	officePDFFilter = "pdf:calc_pdf_Export"
	containerMount  = "/data"
	// containerProfile lives inside the throwaway container, so every run
	// gets a fresh LibreOffice profile.
	containerProfile = "file:///tmp/filechores-profile"
)

// officeBinaries lists the executable names tried when no binary is configured.
var officeBinaries = []string{"soffice", "libreoffice"}

// commandRunner abstracts local process execution for testing.
type commandRunner interface {
	LookPath(file string) (string, error)
	Run(ctx context.Context, name string, args []string, output io.Writer) error
}

type osRunner struct{}

func (osRunner) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (osRunner) Run(ctx context.Context, name string, args []string, output io.Writer) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = output
	cmd.Stderr = output
	return cmd.Run()
}

// OfficeConverter exports spreadsheets with headless LibreOffice, either from
// a local installation or from a container image. It owns a private
// LibreOffice profile directory for its lifetime so it never collides with a
// desktop session.
type OfficeConverter struct {
	binary     string
	runtime    container.Runtime
	image      string
	profileDir string
	run        commandRunner
	closed     bool
}

// NewOfficeHost locates LibreOffice (or a container runtime holding it) and
// prepares a private profile. Callers must Close the returned host.
func NewOfficeHost(cfg types.OfficeConfig) (*OfficeConverter, error) {
	return newOfficeHost(cfg, osRunner{}, container.DetectRuntime)
}

func newOfficeHost(cfg types.OfficeConfig, run commandRunner, detect func() (container.Runtime, error)) (*OfficeConverter, error) {
	o := &OfficeConverter{run: run}

	if cfg.UseContainer {
		rt, err := detect()
		if err != nil {
			return nil, err
		}
		if err := rt.ImageExists(cfg.ContainerImage); err != nil {
			return nil, fmt.Errorf("office image not available in %s: %w", rt.Name(), err)
		}
		o.runtime = rt
		o.image = cfg.ContainerImage
		return o, nil
	}

	bin, err := lookupOffice(cfg.Binary, run)
	if err != nil {
		return nil, err
	}
	o.binary = bin

	dir, err := os.MkdirTemp("", "filechores-office-")
	if err != nil {
		return nil, fmt.Errorf("creating office profile directory: %w", err)
	}
	o.profileDir = dir
	return o, nil
}

func lookupOffice(configured string, run commandRunner) (string, error) {
	candidates := officeBinaries
	if configured != "" {
		candidates = []string{configured}
	}
	for _, name := range candidates {
		if p, err := run.LookPath(name); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("LibreOffice not found: tried %s", strings.Join(candidates, ", "))
}

// Convert exports srcPath to PDF. LibreOffice always names its output after
// the source, so the file is renamed when dstPath differs.
func (o *OfficeConverter) Convert(ctx context.Context, srcPath, dstPath string) error {
	if o.closed {
		return errors.New("office host is closed")
	}
	outDir := filepath.Dir(dstPath)
	produced := filepath.Join(outDir, strings.TrimSuffix(filepath.Base(srcPath), filepath.Ext(srcPath))+".pdf")

	// LibreOffice exits 0 on load failures without writing anything, so an
	// earlier export must not be mistaken for this one.
	restore, err := setAside(produced)
	if err != nil {
		return err
	}

	var out bytes.Buffer
	if o.runtime != nil {
		err = o.convertInContainer(ctx, srcPath, outDir, &out)
	} else {
		err = o.convertLocal(ctx, srcPath, outDir, &out)
	}
	if err == nil {
		if _, statErr := os.Stat(produced); statErr != nil {
			err = fmt.Errorf("LibreOffice produced no output for %s", filepath.Base(srcPath))
		}
	}
	if err != nil {
		return errors.Join(withOutput(err, &out), restore(false))
	}
	if err := restore(true); err != nil {
		return err
	}

	if produced != dstPath {
		if err := os.Rename(produced, dstPath); err != nil {
			return fmt.Errorf("renaming %s: %w", produced, err)
		}
	}
	return nil
}

// setAside moves an existing file at p to a hidden sibling. The returned
// func discards it when the new export succeeded and puts it back otherwise.
func setAside(p string) (func(succeeded bool) error, error) {
	if _, err := os.Lstat(p); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return func(bool) error { return nil }, nil
		}
		return nil, fmt.Errorf("checking %s: %w", p, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(p), ".filechores-*"+filepath.Ext(p))
	if err != nil {
		return nil, fmt.Errorf("setting aside %s: %w", p, err)
	}
	backup := tmp.Name()
	tmp.Close()
	if err := os.Rename(p, backup); err != nil {
		os.Remove(backup)
		return nil, fmt.Errorf("setting aside %s: %w", p, err)
	}

	return func(succeeded bool) error {
		if succeeded {
			if err := os.Remove(backup); err != nil {
				return fmt.Errorf("removing previous %s: %w", filepath.Base(p), err)
			}
			return nil
		}
		if err := os.Rename(backup, p); err != nil {
			return fmt.Errorf("restoring %s: %w", p, err)
		}
		return nil
	}, nil
}

func (o *OfficeConverter) convertLocal(ctx context.Context, srcPath, outDir string, out io.Writer) error {
	profile, err := fileURL(o.profileDir)
	if err != nil {
		return err
	}
	args := []string{
		"-env:UserInstallation=" + profile,
		"--headless", "--norestore",
		"--convert-to", officePDFFilter,
		"--outdir", outDir,
		srcPath,
	}
	return o.run.Run(ctx, o.binary, args, out)
}

func (o *OfficeConverter) convertInContainer(ctx context.Context, srcPath, outDir string, out io.Writer) error {
	if filepath.Dir(srcPath) != outDir {
		return fmt.Errorf("container conversion needs source and output in one directory, got %s and %s", filepath.Dir(srcPath), outDir)
	}
	abs, err := filepath.Abs(outDir)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", outDir, err)
	}
	spec := container.RunSpec{
		Image:   o.image,
		Mounts:  []container.Mount{{Source: abs, Target: containerMount}},
		Env:     []string{"HOME=/tmp"},
		User:    hostUser(),
		Workdir: containerMount,
		Args: []string{
			"soffice",
			"-env:UserInstallation=" + containerProfile,
			"--headless", "--norestore",
			"--convert-to", officePDFFilter,
			"--outdir", containerMount,
			path.Join(containerMount, filepath.Base(srcPath)),
		},
	}
	return o.runtime.Run(ctx, spec, out)
}

// Close removes the private profile. Calling Close more than once is a no-op.
func (o *OfficeConverter) Close() error {
	if o.closed {
		return nil
	}
	o.closed = true
	if o.profileDir == "" {
		return nil
	}
	if err := os.RemoveAll(o.profileDir); err != nil {
		return fmt.Errorf("removing office profile %s: %w", o.profileDir, err)
	}
	return nil
}

// hostUser maps container writes to the invoking user so produced PDFs are
// not owned by root. It is empty where uids do not exist.
func hostUser() string {
	uid, gid := os.Getuid(), os.Getgid()
	if uid < 0 || gid < 0 {
		return ""
	}
	return fmt.Sprintf("%d:%d", uid, gid)
}

func withOutput(err error, out *bytes.Buffer) error {
	msg := strings.TrimSpace(out.String())
	if msg == "" {
		return err
	}
	return fmt.Errorf("%w: %s", err, msg)
}
