// Package rows projects discovery directories into typed display rows
// and computes minimal index-based diffs between successive projections.
// This file contains the Row model and the projection with search
// filtering.
package rows

import (
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/samermassoud/eduvpn-client/discovery"
)

// Kind tags the row union.
type Kind int

const (
	// KindSectionHeader is a synthesized category header.
	KindSectionHeader Kind = iota
	// KindInstituteAccessServer is an institute access server entry.
	KindInstituteAccessServer
	// KindSecureInternetOrg is a secure internet organization entry.
	KindSecureInternetOrg
	// KindServerByURL is a user-supplied server address.
	KindServerByURL
	// KindNoResults marks an empty projection.
	KindNoResults
)

// HeaderKind identifies which category a section header introduces.
type HeaderKind int

const (
	HeaderInstituteAccess HeaderKind = iota
	HeaderSecureInternet
	HeaderOwnServer
)

// String returns the display title for the header.
func (h HeaderKind) String() string {
	switch h {
	case HeaderInstituteAccess:
		return "Institute Access"
	case HeaderSecureInternet:
		return "Secure Internet"
	case HeaderOwnServer:
		return "Add your own server"
	default:
		return "Unknown"
	}
}

// Row is one projected list entry. Exactly one of the payload fields is
// set, according to Kind. BaseURL, when non-empty, is what a selection
// of this row connects to.
type Row struct {
	Kind        Kind
	Header      HeaderKind
	Server      *discovery.ServerEntry
	Org         *discovery.OrgEntry
	BaseURL     string
	DisplayName string
}

// Key returns the row's identity for diffing: the kind tag plus the key
// field. Two rows with equal keys are the same entity even when their
// display values differ.
func (r Row) Key() string {
	switch r.Kind {
	case KindSectionHeader:
		return "header:" + r.Header.String()
	case KindInstituteAccessServer:
		return "server:" + r.BaseURL
	case KindSecureInternetOrg:
		return "org:" + orgKey(r.Org)
	case KindServerByURL:
		return "url:" + r.BaseURL
	case KindNoResults:
		return "noresults"
	default:
		return "unknown"
	}
}

func orgKey(org *discovery.OrgEntry) string {
	if org == nil {
		return ""
	}
	return org.OrgID
}

// Project turns a directory plus a live search query into the ordered
// row list. Categories appear in fixed order, institute access before
// secure internet, each introduced by a header only when it has rows
// after filtering. A query that looks like a server address adds a
// connect-by-URL row. An entirely empty projection yields a single
// NoResults row.
func Project(dir *discovery.Directory, query string, includeOrganizations bool) []Row {
	query = strings.TrimSpace(query)

	var out []Row

	var servers []Row
	if dir != nil {
		for i := range dir.InstituteAccessServers {
			entry := &dir.InstituteAccessServers[i]
			name := entry.DisplayName.String()
			if !matches(query, name, entry.DisplayName.Values()) {
				continue
			}
			servers = append(servers, Row{
				Kind:        KindInstituteAccessServer,
				Server:      entry,
				BaseURL:     entry.BaseURL,
				DisplayName: name,
			})
		}
	}
	if len(servers) > 0 {
		out = append(out, Row{Kind: KindSectionHeader, Header: HeaderInstituteAccess})
		out = append(out, servers...)
	}

	if includeOrganizations && dir != nil {
		var orgs []Row
		for i := range dir.SecureInternetOrganizations {
			entry := &dir.SecureInternetOrganizations[i]
			name := entry.DisplayName.String()
			if !matches(query, name, entry.KeywordList.Values()) {
				continue
			}
			orgs = append(orgs, Row{
				Kind:        KindSecureInternetOrg,
				Org:         entry,
				BaseURL:     entry.SecureInternetHome,
				DisplayName: name,
			})
		}
		if len(orgs) > 0 {
			out = append(out, Row{Kind: KindSectionHeader, Header: HeaderSecureInternet})
			out = append(out, orgs...)
		}
	}

	if url, ok := queryAsURL(query); ok {
		out = append(out,
			Row{Kind: KindSectionHeader, Header: HeaderOwnServer},
			Row{Kind: KindServerByURL, BaseURL: url, DisplayName: url})
	}

	if len(out) == 0 {
		return []Row{{Kind: KindNoResults, DisplayName: "No results"}}
	}
	return out
}

// matches reports whether an entry survives the search query. The empty
// query matches everything. Matching is a case-insensitive substring
// test against the display name; entries that miss on the name still
// match when the query fuzzy-matches one of their keywords.
func matches(query, name string, keywords []string) bool {
	if query == "" {
		return true
	}
	if strings.Contains(strings.ToLower(name), strings.ToLower(query)) {
		return true
	}
	for _, kw := range keywords {
		if fuzzy.MatchNormalizedFold(query, kw) {
			return true
		}
	}
	return false
}

// queryAsURL reports whether the query is usable as a server address.
func queryAsURL(query string) (string, bool) {
	if strings.ContainsAny(query, " \t") {
		return "", false
	}
	if strings.HasPrefix(query, "https://") && len(query) > len("https://") {
		return query, true
	}
	// A bare hostname with a dot is treated as an address the user is
	// typing, the way the desktop clients offer "add your own server".
	if strings.Contains(query, ".") && !strings.HasPrefix(query, ".") && !strings.HasSuffix(query, ".") {
		return "https://" + query + "/", true
	}
	return "", false
}
