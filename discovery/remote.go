// Package discovery loads the server and organization directories from
// a chain of data tiers.
// This file contains the HTTP fetcher for the server tier.
package discovery

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/samermassoud/eduvpn-client/common"
)

// maxFeedSize bounds a discovery feed download. The public feeds are a
// few hundred kilobytes; anything beyond this is a broken endpoint.
const maxFeedSize = 8 << 20

// HTTPFetcher fetches discovery feeds over HTTPS. It implements
// common.RemoteFetcher.
type HTTPFetcher struct {
	client  *http.Client
	urls    map[common.DirectoryType]string
	version string
}

// NewHTTPFetcher creates a fetcher for the given feed URLs. A zero
// timeout falls back to the default request timeout.
func NewHTTPFetcher(serverListURL, organizationListURL string, timeout time.Duration, version string) *HTTPFetcher {
	if timeout <= 0 {
		timeout = common.RequestTimeout
	}
	return &HTTPFetcher{
		client: &http.Client{Timeout: timeout},
		urls: map[common.DirectoryType]string{
			common.DirectoryServers:       serverListURL,
			common.DirectoryOrganizations: organizationListURL,
		},
		version: version,
	}
}

// Fetch retrieves the current feed payload for the directory type.
func (f *HTTPFetcher) Fetch(ctx context.Context, dt common.DirectoryType) ([]byte, error) {
	url, ok := f.urls[dt]
	if !ok || url == "" {
		return nil, fmt.Errorf("no feed URL configured for %s", dt)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build discovery request: %w", err)
	}
	req.Header.Set("User-Agent", common.AppName+"/"+f.version)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("discovery fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("discovery server returned %s for %s", resp.Status, dt)
	}

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read discovery response: %w", err)
	}
	return payload, nil
}
