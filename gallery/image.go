// Package gallery serves resized gallery images.
package gallery

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/disintegration/imaging"

	"weddingplanner/api"
	"weddingplanner/payload"
)

const (
	maxWidth = 768
	maxAge   = 30 * 24 * time.Hour
)

var formats = map[string]imaging.Format{
	"jpeg": imaging.JPEG,
	"png":  imaging.PNG,
	"gif":  imaging.GIF,
}

// Images resizes source images on first request and keeps the result in
// memory for the life of the process.
type Images struct {
	Files fs.FS

	mu    sync.RWMutex
	cache map[string][]byte
}

func NewImages(files fs.FS) *Images {
	return &Images{Files: files, cache: make(map[string][]byte)}
}

func (h *Images) Routes() []api.Route {
	return []api.Route{
		{Path: "gallery/image/*path", Auth: api.SessionAuth, Action: h.serve},
	}
}

func (h *Images) serve(w http.ResponseWriter, r *api.Request) error {
	name := strings.TrimPrefix(r.Params.ByName("path"), "/")
	if name == "" || strings.Contains(name, "..") {
		r.Log.Warn().Str("path", name).Msg("invalid gallery item path")
		return api.NotFound()
	}
	kind := r.URL.Query().Get("type")
	format, ok := formats[kind]
	if !ok {
		return payload.Invalid("type", "Allowed values: jpeg,png,gif")
	}

	data, err := h.render(path.Clean(name), kind, format)
	if err != nil {
		if notExist(err) {
			return api.NotFound()
		}
		return err
	}

	w.Header().Set("Cache-Control", fmt.Sprintf("private, max-age=%d, must-revalidate", int(maxAge.Seconds())))
	w.Header().Set("Expires", time.Now().Add(maxAge).UTC().Format(http.TimeFormat))
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Content-Type", "image/"+kind)
	w.Header().Del("Pragma")
	_, err = w.Write(data)
	return err
}

func (h *Images) render(name, kind string, format imaging.Format) ([]byte, error) {
	key := name + "?" + kind
	h.mu.RLock()
	data, ok := h.cache[key]
	h.mu.RUnlock()
	if ok {
		return data, nil
	}

	f, err := h.Files.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, err := imaging.Decode(f, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	img = imaging.Resize(img, maxWidth, 0, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, format, imaging.JPEGQuality(85)); err != nil {
		return nil, fmt.Errorf("encode %s as %s: %w", name, kind, err)
	}

	h.mu.Lock()
	h.cache[key] = buf.Bytes()
	h.mu.Unlock()
	return buf.Bytes(), nil
}

func notExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrInvalid)
}
