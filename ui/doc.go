// Package ui provides the interactive terminal server picker for the
// eduVPN client core.
//
// The picker is a bubbletea program: a search input over the projected
// row list, with section headers for institute access servers and
// secure internet organizations. Every keystroke and every discovery
// result re-projects the directory; the new projection is applied to
// the displayed list through the keyed diff, so rows that did not
// change identity keep their position.
//
// Discovery results arrive asynchronously. The stand-in tier (cache or
// bundle) renders immediately; when the background server fetch lands,
// its directory replaces the stand-in wholesale, guarded by the
// generation gate so stale fetches never overwrite newer data.
//
// # File Organization
//
//   - picker.go: bubbletea model, update loop, and view
//   - styles.go: lipgloss styles
package ui
