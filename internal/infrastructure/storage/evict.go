package storage

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"cua-server/services/control-engine/internal/infrastructure/metrics"
)

// artifactFile is one on-disk artifact seen by a directory listing.
type artifactFile struct {
	path    string
	size    int64
	modTime time.Time
}

// dirLocks serializes eviction per directory: two concurrent stores into
// the same directory must not both act on a stale listing.
type dirLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newDirLocks() *dirLocks {
	return &dirLocks{locks: make(map[string]*sync.Mutex)}
}

func (d *dirLocks) forDir(dir string) *sync.Mutex {
	abs, err := filepath.Abs(dir)
	if err != nil {
		abs = filepath.Clean(dir)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	lock, ok := d.locks[abs]
	if !ok {
		lock = &sync.Mutex{}
		d.locks[abs] = lock
	}
	return lock
}

// Prune deletes the oldest artifacts in dir until at most maxFiles remain.
// Deletions are best effort: a failed delete is logged and skipped, never
// aborting the rest of the batch.
func (s *ArtifactStore) Prune(dir string, maxFiles int) {
	if maxFiles < 1 {
		maxFiles = 1
	}

	lock := s.locks.forDir(dir)
	lock.Lock()
	defer lock.Unlock()

	entries, err := listArtifacts(dir)
	if err != nil {
		s.log.Warn().Err(err).Str("dir", dir).Msg("failed to list artifacts for eviction")
		return
	}
	if len(entries) <= maxFiles {
		return
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].modTime.Before(entries[j].modTime)
	})

	deleted := 0
	for _, old := range entries[:len(entries)-maxFiles] {
		if err := os.Remove(old.path); err != nil {
			metrics.EvictionFailuresTotal.Inc()
			s.log.Warn().Err(err).Str("path", old.path).Msg("failed to delete expired artifact")
			continue
		}
		metrics.EvictionsTotal.Inc()
		deleted++
		s.log.Debug().Str("path", old.path).Msg("expired artifact deleted")
	}
	if deleted > 0 {
		s.log.Debug().Int("deleted", deleted).Str("dir", dir).Msg("retention eviction completed")
	}
}

// listArtifacts returns the artifact files in dir. Temp files and foreign
// extensions are ignored. A missing directory lists as empty.
func listArtifacts(dir string) ([]artifactFile, error) {
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var files []artifactFile
	for _, entry := range dirEntries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if ext != ".jpg" && ext != ".png" {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, artifactFile{
			path:    filepath.Join(dir, name),
			size:    info.Size(),
			modTime: info.ModTime(),
		})
	}
	return files, nil
}
