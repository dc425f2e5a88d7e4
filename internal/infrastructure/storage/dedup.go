package storage

import (
	"bytes"
	"image"
	"os"
	"path/filepath"
	"strings"

	"cua-server/services/control-engine/internal/domain/capture"
	"cua-server/services/control-engine/utils/artifactid"
)

// findDuplicate returns the most recent artifact of the same context when
// its content matches digest, nil otherwise.
//
// Fingerprints of the source pixels are remembered at store time, so a
// repeat capture matches exactly even after a lossy JPEG encode. When the
// cache has no entry (fresh process), the newest matching file is decoded
// and fingerprinted instead; that fallback can miss a duplicate across a
// lossy re-encode, which only costs one redundant file.
func (s *ArtifactStore) findDuplicate(dir, context string, digest capture.Digest) *capture.Record {
	key := dedupKey(dir, context)

	if v, ok := s.fingerprints.Get(key); ok {
		last := v.(lastArtifact)
		if last.digest != digest {
			return nil
		}
		info, err := os.Stat(last.path)
		if err != nil {
			// Evicted or externally removed; forget it.
			s.fingerprints.Remove(key)
			return nil
		}
		return &capture.Record{
			ID:      last.id,
			Path:    last.path,
			Format:  formatFromPath(last.path),
			Bytes:   info.Size(),
			ModTime: info.ModTime(),
			Context: context,
		}
	}

	return s.findDuplicateOnDisk(dir, context, digest)
}

// findDuplicateOnDisk decodes the newest artifact matching context and
// compares decoded-pixel fingerprints.
func (s *ArtifactStore) findDuplicateOnDisk(dir, context string, digest capture.Digest) *capture.Record {
	entries, err := listArtifacts(dir)
	if err != nil {
		return nil
	}

	var newest *artifactFile
	for i := range entries {
		if !matchesContext(filepath.Base(entries[i].path), context) {
			continue
		}
		if newest == nil || entries[i].modTime.After(newest.modTime) {
			newest = &entries[i]
		}
	}
	if newest == nil {
		return nil
	}

	data, err := os.ReadFile(newest.path)
	if err != nil {
		s.log.Debug().Err(err).Str("path", newest.path).Msg("failed to read previous artifact for dedup")
		return nil
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		s.log.Debug().Err(err).Str("path", newest.path).Msg("failed to decode previous artifact for dedup")
		return nil
	}
	if capture.Fingerprint(img) != digest {
		return nil
	}

	record := &capture.Record{
		ID:      artifactid.New(),
		Path:    newest.path,
		Format:  formatFromPath(newest.path),
		Bytes:   newest.size,
		ModTime: newest.modTime,
		Context: context,
	}
	s.rememberFingerprint(dir, context, record.ID, record.Path, digest)
	return record
}

func (s *ArtifactStore) rememberFingerprint(dir, context, id, path string, digest capture.Digest) {
	s.fingerprints.Add(dedupKey(dir, context), lastArtifact{id: id, path: path, digest: digest})
}

func dedupKey(dir, context string) string {
	abs, err := filepath.Abs(dir)
	if err != nil {
		abs = filepath.Clean(dir)
	}
	return abs + "\x00" + sanitizeContext(context)
}

// matchesContext reports whether an artifact file name belongs to the given
// context tag. Untagged lookups match any artifact, mirroring the dedup
// contract for captures without a context.
func matchesContext(name, context string) bool {
	if context == "" {
		return true
	}
	return strings.HasPrefix(name, sanitizeContext(context)+"_")
}

func formatFromPath(path string) capture.Format {
	if strings.EqualFold(filepath.Ext(path), ".png") {
		return capture.FormatPNG
	}
	return capture.FormatJPEG
}
