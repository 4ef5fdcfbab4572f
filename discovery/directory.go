// Package discovery loads the server and organization directories from
// a chain of data tiers: local cache, bundled fallback snapshot, and
// the remote discovery server.
// This file contains the directory data model and feed parsing.
package discovery

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/samermassoud/eduvpn-client/common"
)

// LocalizedText is a display string that may arrive either as a plain
// string or as a locale-to-string map.
type LocalizedText map[string]string

// UnmarshalJSON accepts both wire representations.
func (t *LocalizedText) UnmarshalJSON(data []byte) error {
	var plain string
	if err := json.Unmarshal(data, &plain); err == nil {
		*t = LocalizedText{"en": plain}
		return nil
	}
	var variants map[string]string
	if err := json.Unmarshal(data, &variants); err != nil {
		return fmt.Errorf("localized text is neither string nor map: %w", err)
	}
	*t = variants
	return nil
}

// String returns the English variant when present, otherwise the first
// variant in sorted key order.
func (t LocalizedText) String() string {
	if len(t) == 0 {
		return ""
	}
	if v, ok := t["en"]; ok {
		return v
	}
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return t[keys[0]]
}

// Values returns all variants in sorted key order.
func (t LocalizedText) Values() []string {
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, t[k])
	}
	return out
}

// ServerEntry is one institute-access server from the server list feed.
type ServerEntry struct {
	BaseURL                   string        `json:"base_url"`
	DisplayName               LocalizedText `json:"display_name"`
	CountryCode               string        `json:"country_code"`
	SupportContact            []string      `json:"support_contact"`
	AuthenticationURLTemplate string        `json:"authentication_url_template"`
	Type                      string        `json:"server_type"`
}

// OrgEntry is one secure-internet organization from the organization
// list feed.
type OrgEntry struct {
	OrgID              string        `json:"org_id"`
	DisplayName        LocalizedText `json:"display_name"`
	KeywordList        LocalizedText `json:"keyword_list"`
	SecureInternetHome string        `json:"secure_internet_home"`
}

// Directory is one complete discovery result. A successful load
// replaces the previous directory wholesale; tiers are never merged.
type Directory struct {
	InstituteAccessServers      []ServerEntry
	SecureInternetOrganizations []OrgEntry
}

type serverListFeed struct {
	Version uint64        `json:"v"`
	List    []ServerEntry `json:"server_list"`
}

type organizationListFeed struct {
	Version uint64     `json:"v"`
	List    []OrgEntry `json:"organization_list"`
}

// ParseDirectory decodes a raw feed payload for the given directory
// type. Order of entries is preserved; upstream pre-sorts the feeds.
func ParseDirectory(dt common.DirectoryType, payload []byte) (*Directory, error) {
	switch dt {
	case common.DirectoryServers:
		var feed serverListFeed
		if err := json.Unmarshal(payload, &feed); err != nil {
			return nil, fmt.Errorf("failed to parse server list: %w", err)
		}
		servers := make([]ServerEntry, 0, len(feed.List))
		for _, s := range feed.List {
			// The feed mixes institute_access and secure_internet
			// entries; the latter belong to organizations.
			if s.Type != "" && s.Type != "institute_access" {
				continue
			}
			servers = append(servers, s)
		}
		return &Directory{InstituteAccessServers: servers}, nil
	case common.DirectoryOrganizations:
		var feed organizationListFeed
		if err := json.Unmarshal(payload, &feed); err != nil {
			return nil, fmt.Errorf("failed to parse organization list: %w", err)
		}
		return &Directory{SecureInternetOrganizations: feed.List}, nil
	default:
		return nil, fmt.Errorf("unknown directory type %d", dt)
	}
}

// Merge combines this directory's entries with those of another,
// category-wise: a non-empty category in other replaces the same
// category here. Used to combine the two feeds into one view after
// both loads complete; within one feed a load always replaces
// wholesale.
func (d *Directory) Merge(other *Directory) *Directory {
	out := &Directory{
		InstituteAccessServers:      d.InstituteAccessServers,
		SecureInternetOrganizations: d.SecureInternetOrganizations,
	}
	if other == nil {
		return out
	}
	if len(other.InstituteAccessServers) > 0 {
		out.InstituteAccessServers = other.InstituteAccessServers
	}
	if len(other.SecureInternetOrganizations) > 0 {
		out.SecureInternetOrganizations = other.SecureInternetOrganizations
	}
	return out
}

// Empty reports whether the directory has no entries at all.
func (d *Directory) Empty() bool {
	return len(d.InstituteAccessServers) == 0 && len(d.SecureInternetOrganizations) == 0
}
