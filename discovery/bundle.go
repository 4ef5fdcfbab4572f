// Package discovery loads the server and organization directories from
// a chain of data tiers.
// This file contains the bundled fallback snapshot reader.
package discovery

import (
	"embed"

	"github.com/samermassoud/eduvpn-client/common"
)

//go:embed bundled/server_list.json bundled/organization_list.json
var bundledFS embed.FS

// EmbeddedBundle serves the discovery snapshots compiled into the
// binary. It implements common.BundleReader and acts as the stand-in
// tier when no cache exists yet and the network is unavailable.
type EmbeddedBundle struct{}

// Read returns the bundled payload for the directory type.
func (EmbeddedBundle) Read(dt common.DirectoryType) ([]byte, error) {
	switch dt {
	case common.DirectoryServers:
		return bundledFS.ReadFile("bundled/server_list.json")
	case common.DirectoryOrganizations:
		return bundledFS.ReadFile("bundled/organization_list.json")
	default:
		return nil, common.ErrNotFound
	}
}
