package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"net/url"

	"github.com/nfnt/resize"

	"recipeshare_backend/apierr"
	"recipeshare_backend/response"
	"recipeshare_backend/storage"
)

const (
	multipartMemory = 32 << 20
	// proxyHeight is the height the image proxy scales to, keeping aspect.
	proxyHeight   = 500
	maxProxyBytes = 20 << 20
)

func (a *API) parseMultipart(w http.ResponseWriter, r *http.Request) error {
	limit := int64(a.uploader.MaxCount())*a.uploader.MaxSize() + maxJSONBody
	if limit <= maxJSONBody {
		limit = 64 << 20
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return apierr.TooLarge("upload exceeds %d bytes", limit)
		}
		return apierr.BadRequest("invalid multipart form: %v", err)
	}
	return nil
}

// formFiles reads every file under field. Oversized files are rejected from
// their header before being read.
func (a *API) formFiles(r *http.Request, field string) ([]storage.File, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}
	headers := r.MultipartForm.File[field]
	files := make([]storage.File, 0, len(headers))
	for _, fh := range headers {
		if limit := a.uploader.MaxSize(); limit > 0 && fh.Size > limit {
			return nil, fmt.Errorf("%w: %s is %d bytes (max %d)", storage.ErrFileTooLarge, fh.Filename, fh.Size, limit)
		}
		f, err := fh.Open()
		if err != nil {
			return nil, apierr.BadRequest("open %s: %v", fh.Filename, err)
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, apierr.BadRequest("read %s: %v", fh.Filename, err)
		}
		files = append(files, storage.File{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
		})
	}
	return files, nil
}

func (a *API) uploadImages(w http.ResponseWriter, r *http.Request) {
	if err := a.parseMultipart(w, r); err != nil {
		a.fail(w, r, err)
		return
	}
	files, err := a.formFiles(r, "images")
	if err == nil && len(files) == 0 {
		files, err = a.formFiles(r, "image")
	}
	if err != nil {
		a.fail(w, r, err)
		return
	}
	uploads, err := a.uploader.UploadAll(r.Context(), files)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.log.Info("images uploaded", "user_id", session(r).UserID, "count", len(uploads))
	response.JSON(w, http.StatusCreated, map[string]any{"uploads": uploads})
}

// fetchImage proxies a remote image, scaled to proxyHeight.
func (a *API) fetchImage(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("url")
	if raw == "" {
		a.fail(w, r, apierr.BadRequest("url parameter is required"))
		return
	}
	src, err := url.Parse(raw)
	if err != nil || (src.Scheme != "http" && src.Scheme != "https") || src.Host == "" {
		a.fail(w, r, apierr.BadRequest("url must be an absolute http or https URL"))
		return
	}

	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, src.String(), nil)
	if err != nil {
		a.fail(w, r, apierr.BadRequest("invalid url: %v", err))
		return
	}
	resp, err := a.client.Do(req)
	if err != nil {
		a.fail(w, r, apierr.New(http.StatusBadGateway, "upstream", fmt.Errorf("fetch image: %w", err)))
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		a.fail(w, r, apierr.New(http.StatusBadGateway, "upstream", fmt.Errorf("image source returned %d", resp.StatusCode)))
		return
	}

	img, format, err := image.Decode(io.LimitReader(resp.Body, maxProxyBytes))
	if err != nil {
		a.fail(w, r, apierr.New(http.StatusUnsupportedMediaType, "unsupported_image", fmt.Errorf("decode image: %w", err)))
		return
	}
	scaled := resize.Resize(0, proxyHeight, img, resize.Lanczos3)

	var buf bytes.Buffer
	switch format {
	case "jpeg":
		err = jpeg.Encode(&buf, scaled, &jpeg.Options{Quality: 85})
	case "png":
		err = png.Encode(&buf, scaled)
	default:
		a.fail(w, r, apierr.New(http.StatusUnsupportedMediaType, "unsupported_image", fmt.Errorf("cannot re-encode %s images", format)))
		return
	}
	if err != nil {
		a.fail(w, r, fmt.Errorf("encode image: %w", err))
		return
	}
	w.Header().Set("Content-Type", "image/"+format)
	w.Header().Set("Cache-Control", "public, max-age=86400")
	_, _ = buf.WriteTo(w)
}
