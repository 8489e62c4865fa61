package ioutils

import (
	"bytes"
	"image"
	"image/png"

	"golang.org/x/image/draw"
)

// AvatarService renders player face icons from skin textures.
//
// Skins are 64x64 (or legacy 64x32) PNG textures; the face occupies the
// 8x8 square at (8,8) and the hat overlay the 8x8 square at (40,8).
// Host UIs show the upscaled face next to the account name.
//
// Example usage:
//
//	svc := NewAvatarService()
//	skin, _ := client.DownloadBytes(ctx, profile.SkinURL)
//	icon, _ := svc.RenderFace(skin, 64)
type AvatarService struct{}

// NewAvatarService creates a new AvatarService.
func NewAvatarService() *AvatarService {
	return &AvatarService{}
}

// face and hat-overlay regions within a skin texture.
var (
	faceRect = image.Rect(8, 8, 16, 16)
	hatRect  = image.Rect(40, 8, 48, 16)
)

// RenderFace crops the face from a skin texture, composites the hat
// layer over it, and upscales the result to size x size pixels.
//
// Nearest-neighbor scaling keeps the pixel-art edges crisp; smooth
// kernels would blur the 8x8 source beyond recognition.
//
// Returns the icon as PNG-encoded bytes.
func (s *AvatarService) RenderFace(skin []byte, size int) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(skin))
	if err != nil {
		return nil, err
	}

	face := image.NewRGBA(image.Rect(0, 0, 8, 8))
	draw.Draw(face, face.Bounds(), img, faceRect.Min, draw.Src)
	if img.Bounds().Max.X >= hatRect.Max.X {
		draw.Draw(face, face.Bounds(), img, hatRect.Min, draw.Over)
	}

	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), face, face.Bounds(), draw.Src, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
