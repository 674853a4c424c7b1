package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"
)

var (
	ErrNoFiles         = errors.New("no files to upload")
	ErrTooManyFiles    = errors.New("too many files")
	ErrFileTooLarge    = errors.New("file too large")
	ErrUnsupportedType = errors.New("unsupported file type")
)

type File struct {
	Name        string
	ContentType string
	Data        []byte
}

type Upload struct {
	Key          string `json:"key"`
	URL          string `json:"url"`
	Size         int64  `json:"size"`
	ContentType  string `json:"contentType"`
	Deduplicated bool   `json:"deduplicated"`
}

type Uploader struct {
	store    ObjectStore
	folder   string
	maxCount int
	maxSize  int64

	// OnUpload, when set, is called once per stored or deduplicated file.
	OnUpload func(deduplicated bool)
}

func NewUploader(store ObjectStore, folder string, maxCount int, maxSize int64) *Uploader {
	return &Uploader{store: store, folder: folder, maxCount: maxCount, maxSize: maxSize}
}

func (u *Uploader) MaxCount() int  { return u.maxCount }
func (u *Uploader) MaxSize() int64 { return u.maxSize }

// URL resolves a stored key to its public address.
func (u *Uploader) URL(key string) string { return u.store.URL(key) }

// Check validates a batch without uploading it.
func (u *Uploader) Check(files []File) error {
	if len(files) == 0 {
		return ErrNoFiles
	}
	if u.maxCount > 0 && len(files) > u.maxCount {
		return fmt.Errorf("%w: %d (max %d)", ErrTooManyFiles, len(files), u.maxCount)
	}
	for _, f := range files {
		if u.maxSize > 0 && int64(len(f.Data)) > u.maxSize {
			return fmt.Errorf("%w: %s is %d bytes (max %d)", ErrFileTooLarge, f.Name, len(f.Data), u.maxSize)
		}
		if !strings.HasPrefix(DetectType(f.ContentType, f.Data), "image/") {
			return fmt.Errorf("%w: %s", ErrUnsupportedType, f.Name)
		}
	}
	return nil
}

// UploadAll stores every file concurrently and waits for all of them. Any
// failure fails the batch. Results are in input order.
func (u *Uploader) UploadAll(ctx context.Context, files []File) ([]Upload, error) {
	if err := u.Check(files); err != nil {
		return nil, err
	}
	out := make([]Upload, len(files))
	g, ctx := errgroup.WithContext(ctx)
	for i, f := range files {
		i, f := i, f
		g.Go(func() error {
			up, err := u.upload(ctx, f)
			if err != nil {
				return fmt.Errorf("upload %s: %w", f.Name, err)
			}
			out[i] = up
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (u *Uploader) upload(ctx context.Context, f File) (Upload, error) {
	ct := DetectType(f.ContentType, f.Data)
	key := ContentKey(u.folder, f.Data, ct)
	up := Upload{Key: key, URL: u.store.URL(key), Size: int64(len(f.Data)), ContentType: ct}

	exists, err := u.store.Exists(ctx, key)
	if err != nil {
		return Upload{}, err
	}
	if exists {
		up.Deduplicated = true
	} else if err := u.store.Put(ctx, key, f.Data, ct); err != nil {
		return Upload{}, err
	}
	if u.OnUpload != nil {
		u.OnUpload(up.Deduplicated)
	}
	return up, nil
}
