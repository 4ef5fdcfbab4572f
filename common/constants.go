// Package common provides shared constants, types, and utilities
// used across the eduVPN client core.
package common

import "time"

// Application metadata.
const (
	// AppID is the unique identifier for the application.
	AppID = "org.eduvpn.client"
	// AppName is the display name of the application.
	AppName = "eduVPN Client"
	// ConfigDirName is the name of the configuration directory.
	ConfigDirName = "eduvpn-client"
)

// File names used by the application.
const (
	ConfigFileName = "config.yaml"
	CacheFileName  = "discovery.db"
	LogFileName    = "eduvpn-client.log"
)

// Default discovery endpoints. Both can be overridden through the
// configuration file.
const (
	DefaultServerListURL       = "https://disco.eduvpn.org/v2/server_list.json"
	DefaultOrganizationListURL = "https://disco.eduvpn.org/v2/organization_list.json"
)

// Default timeouts and intervals.
const (
	// RequestTimeout is the maximum time to wait for a discovery fetch.
	RequestTimeout = 15 * time.Second
	// AuthTimeout is the maximum time a pending authorization may stay
	// open before it is treated as failed.
	AuthTimeout = 5 * time.Minute
	// CacheMaxAge is how long cached discovery data is considered fresh
	// enough to serve as a stand-in while the server is re-queried.
	CacheMaxAge = 24 * time.Hour
)
