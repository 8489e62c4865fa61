// Package launcher owns the session state every background task operates
// against: the resolved version manifest, the selected version metadata
// and asset index, the account registry, and the JVM registry.
//
// A State is constructed once per session and outlives every task handle
// it spawns. Long-running operations (manifest resolution, version
// resolution, device-code auth, token refresh) are returned as task
// handles so a host loop can poll, cancel, and await them without
// blocking. Read accessors over the manifest and registries are cheap and
// safe to call from the host loop between polls.
//
// Registry mutation is single-threaded by contract: the host must not
// add or remove accounts or JVMs while a task that depends on index
// stability is outstanding.
package launcher
