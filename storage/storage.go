// Package storage puts recipe images into an object store under keys derived
// from their content.
package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"mime"
	"net/http"
	"path"
	"strings"
)

// ObjectStore is the subset of a bucket API the uploader needs.
type ObjectStore interface {
	Exists(ctx context.Context, key string) (bool, error)
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Delete(ctx context.Context, key string) error
	// URL is the public address of key.
	URL(key string) string
}

const cacheControl = "public, max-age=31536000, immutable"

var knownExt = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
	"image/bmp":  ".bmp",
}

// DetectType trusts the declared type unless it is missing or generic.
func DetectType(declared string, data []byte) string {
	mt, _, err := mime.ParseMediaType(declared)
	if err != nil || mt == "" || mt == "application/octet-stream" {
		mt, _, _ = mime.ParseMediaType(http.DetectContentType(data))
	}
	return mt
}

func extension(contentType string) string {
	if ext, ok := knownExt[contentType]; ok {
		return ext
	}
	if exts, err := mime.ExtensionsByType(contentType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ""
}

// ContentKey returns folder/<sha256 of data><ext>. Identical bytes always
// map to the same key.
func ContentKey(folder string, data []byte, contentType string) string {
	sum := sha256.Sum256(data)
	name := hex.EncodeToString(sum[:]) + extension(contentType)
	folder = strings.Trim(folder, "/")
	if folder == "" {
		return name
	}
	return path.Join(folder, name)
}

// joinURL builds base/key, escaping nothing since keys are hex plus a fixed
// extension.
func joinURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(key, "/")
}
