// Package storage persists capture artifacts to the local filesystem and
// enforces the per-directory retention cap.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "image/gif"

	"github.com/gabriel-vasile/mimetype"
	lru "github.com/hashicorp/golang-lru"
	"github.com/rs/zerolog"

	"cua-server/services/control-engine/internal/config"
	"cua-server/services/control-engine/internal/domain/capture"
	"cua-server/services/control-engine/internal/infrastructure/metrics"
	"cua-server/services/control-engine/utils/artifactid"
)

// timestampLayout gives second resolution; two captures of the same context
// in the same second overwrite each other when dedup is off. Accepted.
const timestampLayout = "20060102_150405"

// fingerprintCacheSize bounds the dedup cache (one entry per
// directory+context pair seen by this process).
const fingerprintCacheSize = 256

var allowedMIMEs = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
}

// ArtifactStore writes captures to disk. Safe for concurrent use; eviction
// is serialized per directory.
type ArtifactStore struct {
	log          zerolog.Logger
	fingerprints *lru.Cache // dedup key -> lastArtifact
	locks        *dirLocks
}

// lastArtifact remembers the source-pixel fingerprint of the newest artifact
// stored for one directory+context pair.
type lastArtifact struct {
	id     string
	path   string
	digest capture.Digest
}

// NewArtifactStore creates a store.
func NewArtifactStore(log zerolog.Logger) *ArtifactStore {
	cache, err := lru.New(fingerprintCacheSize)
	if err != nil {
		// Only reachable with a non-positive size constant.
		panic(err)
	}
	return &ArtifactStore{
		log:          log.With().Str("component", "artifact-store").Logger(),
		fingerprints: cache,
		locks:        newDirLocks(),
	}
}

// Store runs one capture through the policy gate, deduplication, encoding,
// atomic write and synchronous eviction. It returns nil, nil when the
// policy skips the capture, the existing record when the capture
// duplicates the most recent artifact of its context, and the new record
// otherwise.
func (s *ArtifactStore) Store(ctx context.Context, req capture.Request, cfg *config.Config) (*capture.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	contextLabel := metricContext(req.Context)

	if !capture.ShouldCapture(capture.Mode(cfg.CaptureMode), req.Context) {
		s.log.Debug().
			Str("context", req.Context).
			Str("mode", cfg.CaptureMode).
			Msg("capture skipped by policy")
		metrics.CapturesTotal.WithLabelValues(contextLabel, "skipped").Inc()
		return nil, nil
	}

	img, err := decodeCapture(req.Data)
	if err != nil {
		metrics.CapturesTotal.WithLabelValues(contextLabel, "error").Inc()
		return nil, err
	}

	dir := cfg.StorageDir
	if req.Directory != "" {
		dir = req.Directory
	}
	format := capture.Format(cfg.CaptureFormat)
	quality := config.ClampQuality(cfg.CaptureQuality)
	if req.Quality != 0 {
		quality = config.ClampQuality(req.Quality)
	}

	digest := capture.Fingerprint(img)

	if cfg.DedupEnabled {
		if existing := s.findDuplicate(dir, req.Context, digest); existing != nil {
			s.log.Debug().
				Str("path", existing.Path).
				Str("context", req.Context).
				Msg("capture identical to previous artifact, skipping write")
			metrics.CapturesTotal.WithLabelValues(contextLabel, "deduplicated").Inc()
			return existing, nil
		}
	}

	if format == capture.FormatJPEG {
		img = flattenAlpha(img)
	}

	encoded, err := encode(img, format, quality)
	if err != nil {
		metrics.CapturesTotal.WithLabelValues(contextLabel, "error").Inc()
		return nil, err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		metrics.CapturesTotal.WithLabelValues(contextLabel, "error").Inc()
		return nil, fmt.Errorf("create artifact directory: %w", err)
	}

	path := filepath.Join(dir, artifactFileName(req.Context, time.Now(), format))
	if err := writeAtomic(path, encoded); err != nil {
		metrics.CapturesTotal.WithLabelValues(contextLabel, "error").Inc()
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		metrics.CapturesTotal.WithLabelValues(contextLabel, "error").Inc()
		return nil, fmt.Errorf("stat artifact: %w", err)
	}

	record := &capture.Record{
		ID:      artifactid.New(),
		Path:    path,
		Format:  format,
		Bytes:   info.Size(),
		ModTime: info.ModTime(),
		Context: req.Context,
	}
	s.rememberFingerprint(dir, req.Context, record.ID, path, digest)

	metrics.CapturesTotal.WithLabelValues(contextLabel, "stored").Inc()
	metrics.CaptureBytes.Observe(float64(record.Bytes))
	s.log.Debug().
		Str("path", path).
		Str("format", string(format)).
		Int64("bytes", record.Bytes).
		Msg("artifact stored")

	s.Prune(dir, cfg.MaxFiles)

	return record, nil
}

// decodeCapture validates and decodes raw capture bytes.
func decodeCapture(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty capture payload", capture.ErrDecode)
	}
	if mime := mimetype.Detect(data); !allowedMIMEs[mime.String()] {
		return nil, fmt.Errorf("%w: unsupported content type %s", capture.ErrDecode, mime)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", capture.ErrDecode, err)
	}
	return img, nil
}

// flattenAlpha composites translucent sources onto an opaque white
// background. JPEG has no alpha channel; encoding a premultiplied
// translucent image directly would darken it instead.
func flattenAlpha(img image.Image) image.Image {
	if isOpaque(img) {
		return img
	}
	b := img.Bounds()
	flat := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(flat, flat.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(flat, flat.Bounds(), img, b.Min, draw.Over)
	return flat
}

func isOpaque(img image.Image) bool {
	type opaquer interface{ Opaque() bool }
	if o, ok := img.(opaquer); ok {
		return o.Opaque()
	}
	return false
}

func encode(img image.Image, format capture.Format, quality int) ([]byte, error) {
	var buf bytes.Buffer
	switch format {
	case capture.FormatPNG:
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("encode png: %w", err)
		}
	default:
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return nil, fmt.Errorf("encode jpeg: %w", err)
		}
	}
	return buf.Bytes(), nil
}

// writeAtomic writes data through a temp file in the target directory and
// renames it into place, so readers never observe a partial artifact.
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".capture-*")
	if err != nil {
		return fmt.Errorf("create temp artifact: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close artifact: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("rename artifact: %w", err)
	}
	return nil
}

// artifactFileName builds <context>_<timestamp>.<ext>, or
// <timestamp>.<ext> for untagged captures.
func artifactFileName(context string, ts time.Time, format capture.Format) string {
	stamp := ts.Format(timestampLayout)
	if context == "" {
		return stamp + "." + format.Ext()
	}
	return sanitizeContext(context) + "_" + stamp + "." + format.Ext()
}

// sanitizeContext keeps context tags filesystem-safe.
func sanitizeContext(c string) string {
	var b strings.Builder
	for _, r := range c {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	return b.String()
}

func metricContext(c string) string {
	if c == "" {
		return "none"
	}
	return c
}
