// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/filechores/internal/organize"
	"github.com/pdiddy/filechores/pkg/types"
)

var organizeCmd = &cobra.Command{
	Use:   "organize [dir]",
	Short: "Move files into folders named after their modification date",
	Long: `Organize moves every regular file in the directory into a subfolder named
after the file's last-modified date (YYYY-MM-DD by default), creating the
folder when needed. Subdirectories are left untouched and are not descended
into.

--layout takes a Go time layout; a layout with slashes such as 2006/01/02
produces nested folders. --timezone picks the zone used to decide the
calendar date (default: local time). The first failure stops the run.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runOrganize,
}

func init() {
	f := organizeCmd.Flags()
	f.String("dir", "", "directory whose files are organized")
	f.String("layout", types.DefaultDateLayout, "Go time layout for folder names")
	f.String("timezone", "Local", "IANA time zone for the date label")
	f.String("on-existing", string(types.CollisionError), "when the destination exists: skip, overwrite, or error")
	f.Bool("dry-run", false, "print planned moves without changing anything")
	f.String("output", string(outputText), "summary format: text, json, or yaml")

	bindFlags(organizeCmd, "organize")
	rootCmd.AddCommand(organizeCmd)
}

func runOrganize(cmd *cobra.Command, args []string) error {
	format, err := parseOutputFormat(viper.GetString("organize.output"))
	if err != nil {
		return err
	}
	cfg, err := organizeConfig(args)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	summary, runErr := organize.Organize(cmd.Context(), cfg, progressWriter(format, out, cmd.ErrOrStderr()))
	if err := writeSummary(out, format, summary); err != nil {
		return err
	}
	return runErr
}

// organizeConfig assembles the organizer settings from viper; a positional
// directory argument takes precedence over --dir.
func organizeConfig(args []string) (types.OrganizeConfig, error) {
	policy, err := types.ParseCollisionPolicy(viper.GetString("organize.on-existing"))
	if err != nil {
		return types.OrganizeConfig{}, err
	}

	dir := viper.GetString("organize.dir")
	if len(args) > 0 {
		dir = args[0]
	}

	cfg := types.OrganizeConfig{
		Dir:        dir,
		Layout:     viper.GetString("organize.layout"),
		Location:   viper.GetString("organize.timezone"),
		OnExisting: policy,
		DryRun:     viper.GetBool("organize.dry-run"),
	}
	return cfg, cfg.Validate()
}
