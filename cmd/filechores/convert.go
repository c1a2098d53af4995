// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/filechores/internal/convert"
	"github.com/pdiddy/filechores/pkg/types"
)

const (
	defaultSheetExt    = ".xlsx"
	defaultDocExt      = ".pdf"
	defaultOfficeImage = "libreoffice:latest"
)

var convertCmd = &cobra.Command{
	Use:   "convert [dir]",
	Short: "Export every spreadsheet in a directory to PDF",
	Long: `Convert opens each spreadsheet in the directory through an automation host
and exports it to a PDF with the same base name, next to the source. Files
with other extensions are left untouched.

Backends:
  office  headless LibreOffice, from PATH or (with --container) from an image
  chrome  workbook rendered to HTML and printed by headless Chrome

The host is started once and shut down when the run ends, including when a
conversion fails. The first failure stops the run.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConvert,
}

func init() {
	f := convertCmd.Flags()
	f.String("dir", "", "directory containing spreadsheets")
	f.String("ext", defaultSheetExt, "spreadsheet extension to match")
	f.String("backend", string(types.BackendOffice), "automation host: office or chrome")
	f.String("on-existing", string(types.CollisionSkip), "when the PDF exists: skip, overwrite, or error")
	f.Bool("dry-run", false, "list conversions without starting a host")
	f.Duration("timeout", 0, "per-file conversion timeout (0 for none)")
	f.String("office-bin", "", "LibreOffice executable (default: soffice or libreoffice on PATH)")
	f.Bool("container", false, "run LibreOffice inside a docker or podman container")
	f.String("image", defaultOfficeImage, "container image providing soffice")
	f.Bool("landscape", false, "chrome backend: print in landscape")
	f.Bool("include-hidden", false, "chrome backend: also print hidden sheets")
	f.String("chrome-path", "", "chrome backend: browser executable")
	f.String("output", string(outputText), "summary format: text, json, or yaml")

	bindFlags(convertCmd, "convert")
	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	format, err := parseOutputFormat(viper.GetString("convert.output"))
	if err != nil {
		return err
	}
	cfg, err := convertConfig(args)
	if err != nil {
		return err
	}

	open, err := convert.OpenerFor(cfg)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	result, runErr := convert.Run(cmd.Context(), cfg, open, progressWriter(format, out, cmd.ErrOrStderr()))
	if err := writeSummary(out, format, result); err != nil {
		return err
	}
	if runErr != nil {
		return runErr
	}
	if result.HasFailures() {
		return fmt.Errorf("%d spreadsheet(s) failed conversion", result.Failed)
	}
	return nil
}

// convertConfig assembles the converter settings from viper; a positional
// directory argument takes precedence over --dir.
func convertConfig(args []string) (types.ConvertConfig, error) {
	backend, err := types.ParseConversionBackend(viper.GetString("convert.backend"))
	if err != nil {
		return types.ConvertConfig{}, err
	}
	policy, err := types.ParseCollisionPolicy(viper.GetString("convert.on-existing"))
	if err != nil {
		return types.ConvertConfig{}, err
	}

	dir := viper.GetString("convert.dir")
	if len(args) > 0 {
		dir = args[0]
	}

	cfg := types.ConvertConfig{
		Dir:             dir,
		Extension:       normalizeExt(viper.GetString("convert.ext")),
		OutputExtension: defaultDocExt,
		Backend:         backend,
		OnExisting:      policy,
		DryRun:          viper.GetBool("convert.dry-run"),
		Timeout:         viper.GetDuration("convert.timeout"),
		Office: types.OfficeConfig{
			Binary:         viper.GetString("convert.office-bin"),
			UseContainer:   viper.GetBool("convert.container"),
			ContainerImage: viper.GetString("convert.image"),
		},
		Chrome: types.ChromeConfig{
			Landscape:     viper.GetBool("convert.landscape"),
			IncludeHidden: viper.GetBool("convert.include-hidden"),
			ExecPath:      viper.GetString("convert.chrome-path"),
		},
	}
	return cfg, cfg.Validate()
}

// normalizeExt accepts "xlsx" as shorthand for ".xlsx".
func normalizeExt(ext string) string {
	ext = strings.TrimSpace(ext)
	if ext == "" || strings.HasPrefix(ext, ".") {
		return ext
	}
	return "." + ext
}
