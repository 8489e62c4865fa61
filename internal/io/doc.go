// Package ioutils provides file system and image utilities for the
// launcher's content-addressed caches.
//
// # Hashing
//
// Every downloadable file is addressed by SHA-1 in the game metadata:
//
//	ok, err := ioutils.FileMatchesSHA1(path, artifact.SHA1)
//	if ok {
//	    // already present, skip the download
//	}
//
// # File Operations
//
//	// Write data, creating parent directories
//	err := ioutils.WriteFile("/root/assets/objects/ab/abcd...", data)
//
//	// Ensure directory exists
//	err := ioutils.EnsureDir("/root/natives")
//
// # Avatars
//
// The AvatarService crops and upscales player faces out of skin textures
// for display in host UIs:
//
//	svc := ioutils.NewAvatarService()
//	icon, _ := svc.RenderFace(skinPNG, 64)
package ioutils
