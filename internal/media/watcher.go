package media

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/storage"
)

// EventCallback is called after a watcher-driven inventory change.
// kind is one of "created", "updated", "deleted".
type EventCallback func(kind string, path string)

// Watch starts an fsnotify watcher on the media root and processes file
// change events until ctx is cancelled. It calls cb (if non-nil) after
// each successful inventory mutation.
//
// Directories created at runtime are added to the watch list. Rename
// events trigger a debounced reconciliation pass that drops records
// whose files no longer exist on disk.
func Watch(ctx context.Context, inv *Inventory, store storage.Provider, mediaRoot string, logger *slog.Logger, cb EventCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, mediaRoot); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", mediaRoot))

	var reconcileTimer *time.Timer
	var reconcileCh <-chan time.Time

	scheduleReconcile := func() {
		if reconcileTimer == nil {
			reconcileTimer = time.NewTimer(200 * time.Millisecond)
			reconcileCh = reconcileTimer.C
		} else {
			reconcileTimer.Reset(200 * time.Millisecond)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reconcileTimer != nil {
				reconcileTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-reconcileCh:
			reconcile(inv, store, logger, cb)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			absPath := ev.Name

			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(absPath); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, absPath); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", absPath),
							slog.String("error", addErr.Error()))
					} else {
						logger.Debug("watcher: watching new dir", slog.String("path", absPath))
					}
					recordNewDir(inv, store, mediaRoot, absPath, logger, cb)
					continue
				}
			}

			rel, relErr := filepath.Rel(mediaRoot, absPath)
			if relErr != nil {
				continue
			}
			rel = filepath.ToSlash(rel)

			switch {
			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				fi, statErr := statFile(store, rel)
				if statErr != nil {
					logger.Warn("watcher: stat failed", slog.String("path", rel), slog.String("error", statErr.Error()))
					continue
				}
				if recErr := recordFile(inv, fi); recErr != nil {
					logger.Warn("watcher: record failed", slog.String("path", rel), slog.String("error", recErr.Error()))
					continue
				}
				kind := "updated"
				if ev.Op&fsnotify.Create != 0 {
					kind = "created"
				}
				logger.Debug("watcher: recorded", slog.String("path", rel), slog.String("op", kind))
				if cb != nil {
					cb(kind, rel)
				}

			case ev.Op&fsnotify.Remove != 0:
				if delErr := inv.Delete(rel); delErr != nil {
					logger.Warn("watcher: delete failed", slog.String("path", rel), slog.String("error", delErr.Error()))
					continue
				}
				logger.Debug("watcher: deleted", slog.String("path", rel))
				if cb != nil {
					cb("deleted", rel)
				}

			case ev.Op&fsnotify.Rename != 0:
				// fsnotify fires Rename on the old path only; the new
				// path arrives as a separate Create event. Drop the old
				// record now and reconcile shortly after for stragglers.
				if delErr := inv.Delete(rel); delErr != nil {
					logger.Warn("watcher: rename delete failed", slog.String("path", rel), slog.String("error", delErr.Error()))
				} else {
					logger.Debug("watcher: rename old deleted", slog.String("path", rel))
					if cb != nil {
						cb("deleted", rel)
					}
				}
				scheduleReconcile()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// reconcile drops records without a file on disk and records on-disk
// files the inventory has not seen.
func reconcile(inv *Inventory, store storage.Provider, logger *slog.Logger, cb EventCallback) {
	checksums, err := inv.AllChecksums()
	if err != nil {
		logger.Warn("reconcile: all checksums failed", slog.String("error", err.Error()))
		return
	}

	infos, err := store.List("")
	if err != nil {
		logger.Warn("reconcile: list failed", slog.String("error", err.Error()))
		return
	}

	disk := make(map[string]storage.FileInfo, len(infos))
	for _, fi := range infos {
		disk[fi.Path] = fi
	}

	for p := range checksums {
		if _, ok := disk[p]; !ok {
			if delErr := inv.Delete(p); delErr == nil {
				logger.Debug("reconcile: removed stale", slog.String("path", p))
				if cb != nil {
					cb("deleted", p)
				}
			}
		}
	}

	for p, fi := range disk {
		if checksums[p] == fi.Checksum {
			continue
		}
		if recErr := recordFile(inv, fi); recErr == nil {
			logger.Debug("reconcile: recorded new", slog.String("path", p))
			if cb != nil {
				cb("created", p)
			}
		}
	}
}

// recordNewDir records files found in a newly created directory.
func recordNewDir(inv *Inventory, store storage.Provider, mediaRoot, dirPath string, logger *slog.Logger, cb EventCallback) {
	_ = filepath.WalkDir(dirPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(mediaRoot, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		fi, statErr := statFile(store, rel)
		if statErr != nil {
			return nil
		}
		if recErr := recordFile(inv, fi); recErr == nil {
			logger.Debug("watcher: recorded from new dir", slog.String("path", rel))
			if cb != nil {
				cb("created", rel)
			}
		}
		return nil
	})
}

// statFile builds FileInfo for one path by listing its directory.
func statFile(store storage.Provider, rel string) (storage.FileInfo, error) {
	infos, err := store.List(filepath.ToSlash(filepath.Dir(rel)))
	if err != nil {
		return storage.FileInfo{}, err
	}
	for _, fi := range infos {
		if fi.Path == rel {
			return fi, nil
		}
	}
	return storage.FileInfo{}, os.ErrNotExist
}

func recordFile(inv *Inventory, fi storage.FileInfo) error {
	return inv.Upsert(models.Asset{
		Path:      fi.Path,
		Size:      fi.Size,
		Mime:      mimeFor(fi.Path),
		Checksum:  fi.Checksum,
		UpdatedAt: fi.ModTime.UnixMilli(),
	})
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}
