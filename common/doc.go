// Package common provides shared constants, types, utilities, and interfaces
// used throughout the eduVPN client core.
//
// This package serves as the foundation for cross-cutting concerns:
//
//   - Constants: Application-wide constants like timeouts, file names, and discovery endpoints
//   - Errors: Sentinel errors for consistent error handling across packages
//   - Interfaces: Capability abstractions for cache, bundle, remote fetch, and notifications
//   - Logger: Structured logging with multiple output destinations
//   - Utils: Common utility functions for file and string operations
//
// # Usage
//
// Import the package to access shared functionality:
//
//	import "github.com/samermassoud/eduvpn-client/common"
//
//	// Use constants
//	timeout := common.RequestTimeout
//
//	// Use logger
//	common.LogInfo("Loading %s from cache", dt)
//
//	// Check errors
//	if errors.Is(err, common.ErrAuthCancelled) {
//	    // User dismissed the authorization surface; no alert
//	}
//
// # Design Principles
//
// Components never read ambient global state: everything they need is
// injected at construction time, either as configuration values or as
// one of the narrow capability interfaces defined here. High-level
// packages depend on these abstractions, not on concrete collaborators.
package common
