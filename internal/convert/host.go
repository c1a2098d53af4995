// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/pdiddy/filechores/pkg/types"
)

// OpenerFor returns the HostOpener for the backend selected in cfg.
func OpenerFor(cfg types.ConvertConfig) (HostOpener, error) {
	switch cfg.Backend {
	case types.BackendOffice:
		return func(ctx context.Context) (Host, error) {
			return NewOfficeHost(cfg.Office)
		}, nil
	case types.BackendChrome:
		return func(ctx context.Context) (Host, error) {
			return NewChromeHost(ctx, cfg.Chrome)
		}, nil
	}
	return nil, fmt.Errorf("unknown conversion backend %q", cfg.Backend)
}

// fileURL turns a local path into a file:// URL, adding the leading slash
// that Windows drive paths lack.
func fileURL(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", path, err)
	}
	p := filepath.ToSlash(abs)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	u := url.URL{Scheme: "file", Path: p}
	return u.String(), nil
}
