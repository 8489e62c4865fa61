// Package http wraps the HTTP operations the launcher performs against
// remote services.
//
// This package provides:
//   - A configured client with User-Agent and timeout
//   - JSON fetch/decode with error-kind classification
//   - Streaming file download with a progress writer
//   - Form posts and bearer-authorized requests for the identity provider
//
// # Fetching JSON
//
//	client := http.NewClient()
//	var manifest meta.Manifest
//	err := client.GetJSON(ctx, url, &manifest)
//
// # Downloading with progress
//
//	err := client.DownloadFile(ctx, jarURL, path, func(written, total int64) {
//	    counter.Add(uint64(written - previous))
//	})
//
// All requests accept a context and abort promptly on cancellation.
package http
