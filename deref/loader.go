package deref

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/reoring/jsonldschema/ldjson"
)

// DefaultLoader loads file: URLs (and scheme-less relative paths) from disk and
// http(s): URLs over HTTP. YAML is recognized by a .yaml/.yml extension.
type DefaultLoader struct {
	// Dir is the directory relative paths resolve against; empty means the working directory.
	Dir string
	// Client performs HTTP requests; nil uses http.DefaultClient.
	Client *http.Client
}

func (l DefaultLoader) Load(ctx context.Context, u *url.URL) (any, error) {
	switch u.Scheme {
	case "", "file":
		p := u.Path
		if !filepath.IsAbs(p) && l.Dir != "" {
			p = filepath.Join(l.Dir, p)
		}
		return ldjson.ReadFile(p)
	case "http", "https":
		return l.fetch(ctx, u)
	default:
		return nil, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
}

func (l DefaultLoader) fetch(ctx context.Context, u *url.URL) (any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/schema+json, application/json, application/yaml;q=0.9")
	c := l.Client
	if c == nil {
		c = http.DefaultClient
	}
	resp, err := c.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: %s", u, resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	ct := resp.Header.Get("Content-Type")
	if strings.Contains(ct, "yaml") || strings.HasSuffix(u.Path, ".yaml") || strings.HasSuffix(u.Path, ".yml") {
		return ldjson.DecodeYAML(body)
	}
	return ldjson.DecodeReader(bytes.NewReader(body))
}

// MapLoader serves documents from memory, keyed by URL without fragment.
type MapLoader map[string]any

func (m MapLoader) Load(_ context.Context, u *url.URL) (any, error) {
	doc, ok := m[docKey(u)]
	if !ok {
		return nil, fmt.Errorf("document %q not found", docKey(u))
	}
	return doc, nil
}
