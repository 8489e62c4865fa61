// Package download implements the three transfer pipelines that prepare
// a version for launch: game assets, libraries, and the client jar.
//
// Each pipeline is started independently and returns a task handle plus
// a progress counter. The pipelines share nothing but the read-only
// session state; one failing never cancels the others, and the host
// gates launch on all three succeeding. Files already present with a
// matching hash are skipped, transfers run with bounded concurrency, and
// transient network failures retry with an exponential cooldown before
// the pipeline reports a failure.
package download
