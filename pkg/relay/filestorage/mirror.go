package filestorage

import (
	"context"
	"log/slog"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"
)

const (
	mirrorCacheSize = 1000
	mirrorCacheTTL  = 24 * time.Hour
	uploadTimeout   = 30 * time.Second
)

// Mirror pins finished images through an Uploader, at most once per key.
// A nil Mirror or one without an uploader is disabled.
type Mirror struct {
	uploader Uploader

	hashes *expirable.LRU[string, string]
	group  singleflight.Group
}

func NewMirror(uploader Uploader) *Mirror {
	return &Mirror{
		uploader: uploader,
		hashes:   expirable.NewLRU[string, string](mirrorCacheSize, nil, mirrorCacheTTL),
	}
}

func (m *Mirror) Enabled() bool {
	return m != nil && m.uploader != nil
}

// Pin returns the IPFS hash for the image, or "" when mirroring is disabled
// or the upload failed.
func (m *Mirror) Pin(ctx context.Context, key string, imageUrl string) string {
	if !m.Enabled() || imageUrl == "" {
		return ""
	}

	if hash, ok := m.hashes.Get(key); ok {
		return hash
	}

	upload := m.group.DoChan(key, func() (interface{}, error) {
		uploadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), uploadTimeout)
		defer cancel()

		hash, err := m.uploader.UploadUrl(uploadCtx, imageUrl)
		if err != nil {
			slog.Warn("failed to mirror image", "key", key, "imageUrl", imageUrl, "error", err)
			return "", nil
		}

		m.hashes.Add(key, hash)
		return hash, nil
	})

	select {
	case result := <-upload:
		return result.Val.(string)
	case <-ctx.Done():
		return ""
	}
}
