// Package discovery loads eduVPN server and organization directories
// for the client core.
//
// Directory data comes from three ordered tiers:
//
//   - Cache: a locally persisted copy of a previous server fetch
//   - Bundle: a fallback snapshot compiled into the binary
//   - Server: the authoritative remote discovery feeds
//
// # Fallback chain
//
// A load attempts the cache first and the bundle second; a success from
// either is usable immediately as a stand-in. The server tier is still
// fetched in the background and, on success, replaces the stand-in
// directory wholesale. Only when all three tiers fail does the load
// surface a single aggregated error, with the server-tier failure as
// its primary cause. Tiers are attempted strictly in sequence.
//
// # Generations
//
// Every Load invocation is tagged with a monotonically increasing
// generation. A background server result that resolves after a newer
// load has already delivered must not overwrite the newer directory;
// consumers route results through a GenerationGate to discard them.
//
// # Collaborators
//
// The cache reader, bundle reader, and remote fetcher are injected as
// narrow interfaces. The loader never writes the cache: server-tier
// results carry their raw payload so the persistence collaborator can
// write them back.
package discovery
