// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// CollisionPolicy decides what happens when a destination file already exists.
type CollisionPolicy string

const (
	// CollisionSkip leaves both files in place and records the entry as skipped.
	CollisionSkip CollisionPolicy = "skip"
	// CollisionOverwrite replaces the existing destination.
	CollisionOverwrite CollisionPolicy = "overwrite"
	// CollisionError stops the run with ErrDestinationExists.
	CollisionError CollisionPolicy = "error"
)

// ParseCollisionPolicy converts a flag or config value to a CollisionPolicy.
func ParseCollisionPolicy(s string) (CollisionPolicy, error) {
	switch p := CollisionPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case CollisionSkip, CollisionOverwrite, CollisionError:
		return p, nil
	}
	return "", fmt.Errorf("unknown collision policy %q: use skip, overwrite, or error", s)
}

// ConversionBackend identifies the automation host used to export spreadsheets.
type ConversionBackend string

const (
	// BackendOffice drives headless LibreOffice, locally or in a container.
	BackendOffice ConversionBackend = "office"
	// BackendChrome renders the workbook to HTML and prints it with headless Chrome.
	BackendChrome ConversionBackend = "chrome"
)

// ParseConversionBackend converts a flag or config value to a ConversionBackend.
func ParseConversionBackend(s string) (ConversionBackend, error) {
	switch b := ConversionBackend(strings.ToLower(strings.TrimSpace(s))); b {
	case BackendOffice, BackendChrome:
		return b, nil
	}
	return "", fmt.Errorf("unknown conversion backend %q: use office or chrome", s)
}

// OfficeConfig holds settings for the LibreOffice backend.
type OfficeConfig struct {
	// Binary is the soffice executable. Empty means search PATH for
	// soffice, then libreoffice.
	Binary string `json:"binary,omitempty" yaml:"binary,omitempty"`

	// UseContainer runs LibreOffice inside ContainerImage instead of a local binary.
	UseContainer bool `json:"use_container" yaml:"use_container"`

	// ContainerImage is the image that provides soffice on its PATH.
	ContainerImage string `json:"container_image" yaml:"container_image"`
}

// ChromeConfig holds settings for the headless Chrome backend.
type ChromeConfig struct {
	// Landscape prints pages in landscape orientation.
	Landscape bool `json:"landscape" yaml:"landscape"`

	// IncludeHidden also renders sheets marked hidden in the workbook.
	IncludeHidden bool `json:"include_hidden" yaml:"include_hidden"`

	// ExecPath overrides the Chrome executable chromedp would otherwise find.
	ExecPath string `json:"exec_path,omitempty" yaml:"exec_path,omitempty"`
}

// ConvertConfig holds settings for the spreadsheet-to-PDF converter.
type ConvertConfig struct {
	// Dir is the directory scanned for spreadsheets; PDFs are written alongside.
	Dir string `json:"dir" yaml:"dir"`

	// Extension is the spreadsheet suffix to match (default ".xlsx").
	Extension string `json:"extension" yaml:"extension"`

	// OutputExtension is the suffix given to exported documents (".pdf").
	OutputExtension string `json:"output_extension" yaml:"output_extension"`

	// Backend selects the automation host: office or chrome.
	Backend ConversionBackend `json:"backend" yaml:"backend"`

	// OnExisting decides what happens when the PDF already exists (default skip).
	OnExisting CollisionPolicy `json:"on_existing" yaml:"on_existing"`

	// DryRun reports what would be converted without starting a host.
	DryRun bool `json:"dry_run" yaml:"dry_run"`

	// Timeout bounds a single file conversion. Zero means no limit.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	Office OfficeConfig `json:"office" yaml:"office"`
	Chrome ChromeConfig `json:"chrome" yaml:"chrome"`
}

// Validate reports the first invalid setting in c.
func (c ConvertConfig) Validate() error {
	if c.Dir == "" {
		return fmt.Errorf("convert: source directory is required")
	}
	if c.Extension == "" || c.OutputExtension == "" {
		return fmt.Errorf("convert: input and output extensions are required")
	}
	for _, ext := range []string{c.Extension, c.OutputExtension} {
		if len(ext) < 2 || !strings.HasPrefix(ext, ".") || strings.ContainsAny(ext, `/\`) {
			return fmt.Errorf("convert: extension %q must start with a dot, as in .xlsx", ext)
		}
	}
	if c.Extension == c.OutputExtension {
		return fmt.Errorf("convert: input and output extensions must differ (both %q)", c.Extension)
	}
	if _, err := ParseConversionBackend(string(c.Backend)); err != nil {
		return fmt.Errorf("convert: %w", err)
	}
	if _, err := ParseCollisionPolicy(string(c.OnExisting)); err != nil {
		return fmt.Errorf("convert: %w", err)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("convert: timeout must not be negative")
	}
	if c.Office.UseContainer && c.Office.ContainerImage == "" {
		return fmt.Errorf("convert: container image is required when running office in a container")
	}
	return nil
}

// DefaultDateLayout is the label format for organized folders (YYYY-MM-DD).
const DefaultDateLayout = "2006-01-02"

// OrganizeConfig holds settings for the date-based file organizer.
type OrganizeConfig struct {
	// Dir is the directory whose files are moved into date-labelled subfolders.
	Dir string `json:"dir" yaml:"dir"`

	// Layout is the Go time layout for folder names (default DefaultDateLayout).
	// Separators in the layout produce nested folders.
	Layout string `json:"layout" yaml:"layout"`

	// Location is the IANA zone used to derive the calendar date.
	// Empty or "Local" uses the machine's local time.
	Location string `json:"location" yaml:"location"`

	// OnExisting decides what happens when the destination already holds a
	// file of the same name (default error).
	OnExisting CollisionPolicy `json:"on_existing" yaml:"on_existing"`

	// DryRun prints the planned moves without touching the filesystem.
	DryRun bool `json:"dry_run" yaml:"dry_run"`
}

// Validate reports the first invalid setting in c.
func (c OrganizeConfig) Validate() error {
	if c.Dir == "" {
		return fmt.Errorf("organize: target directory is required")
	}
	if c.Layout == "" {
		return fmt.Errorf("organize: date layout is required")
	}
	if err := CheckDateLabel(time.Date(2006, 1, 2, 15, 4, 5, 0, time.UTC).Format(c.Layout)); err != nil {
		return fmt.Errorf("organize: layout %q: %w", c.Layout, err)
	}
	if _, err := ParseCollisionPolicy(string(c.OnExisting)); err != nil {
		return fmt.Errorf("organize: %w", err)
	}
	if _, err := c.LoadLocation(); err != nil {
		return fmt.Errorf("organize: %w", err)
	}
	return nil
}

// CheckDateLabel rejects folder labels that would not stay inside the
// organized directory: absolute paths and "." or ".." segments.
func CheckDateLabel(label string) error {
	if label == "" {
		return fmt.Errorf("empty folder label")
	}
	if filepath.IsAbs(label) || strings.HasPrefix(label, "/") {
		return fmt.Errorf("folder label %q must be relative", label)
	}
	for _, seg := range strings.Split(filepath.ToSlash(label), "/") {
		if seg == "." || seg == ".." {
			return fmt.Errorf("folder label %q must not contain %q segments", label, seg)
		}
	}
	return nil
}

// LoadLocation resolves c.Location to a *time.Location.
func (c OrganizeConfig) LoadLocation() (*time.Location, error) {
	if c.Location == "" || c.Location == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Location)
	if err != nil {
		return nil, fmt.Errorf("loading time zone %q: %w", c.Location, err)
	}
	return loc, nil
}
