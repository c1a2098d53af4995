// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"

	"go.yaml.in/yaml/v3"
)

type outputFormat string

const (
	outputText outputFormat = "text"
	outputJSON outputFormat = "json"
	outputYAML outputFormat = "yaml"
)

func parseOutputFormat(s string) (outputFormat, error) {
	switch f := outputFormat(s); f {
	case outputText, outputJSON, outputYAML:
		return f, nil
	case "":
		return outputText, nil
	}
	return "", fmt.Errorf("unsupported output format %q: use text, json, or yaml", s)
}

// progressWriter keeps stdout clean for structured output by sending
// per-file progress to stderr.
func progressWriter(format outputFormat, stdout, stderr io.Writer) io.Writer {
	if format == outputText {
		return stdout
	}
	return stderr
}

// writeSummary prints v as JSON or YAML. Text summaries are already part of
// the progress stream, so nothing more is written for text.
func writeSummary(w io.Writer, format outputFormat, v any) error {
	switch format {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	return nil
}
