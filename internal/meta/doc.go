// Package meta defines the remote metadata structures the launcher
// resolves before a download can start.
//
// # Manifest
//
// The version manifest is the ordered list of every published game version:
//
//	manifest.Versions[0].ID   // "1.20.3"
//	manifest.Versions[0].Kind // meta.Release
//
// A manifest is immutable once resolved; a fresh resolution replaces it
// wholesale (Merge folds newly published versions into a cached copy).
//
// # VersionMeta
//
// VersionMeta is the full metadata for one selected version: the client
// jar artifact, the asset index reference, the library list with their
// per-OS rules, and the argument templates used to assemble the launch
// command.
//
// # AssetIndex
//
// AssetIndex maps asset names to content-addressed objects. Objects are
// stored and fetched by hash, never by name:
//
//	objects/<first two hash chars>/<hash>
package meta
