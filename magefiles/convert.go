//go:build mage

package main

import (
	"fmt"
	"os"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Convert builds the CLI and exports the spreadsheets in $FILECHORES_CONVERT_DIR
// (or ./sheets) to PDF.
func Convert() error {
	mg.Deps(Build)
	dir := envOr("FILECHORES_CONVERT_DIR", "sheets")
	fmt.Println("[convert]", dir)
	return sh.RunV(binPath, "convert", dir)
}

// Organize builds the CLI and sorts the files in $FILECHORES_ORGANIZE_DIR
// (or ./inbox) into date folders.
func Organize() error {
	mg.Deps(Build)
	dir := envOr("FILECHORES_ORGANIZE_DIR", "inbox")
	fmt.Println("[organize]", dir)
	return sh.RunV(binPath, "organize", dir)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
