package audio

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// writeSettleDelay gives the producer time to finish writing a file
// after the first filesystem event for it arrives.
const writeSettleDelay = 200 * time.Millisecond

// FileSource watches a drop directory and yields each new audio file
// once. Useful for development and for integrations that record
// elsewhere and copy files in.
type FileSource struct {
	dir     string
	watcher *fsnotify.Watcher
	logger  *slog.Logger

	mu        sync.Mutex
	processed map[string]bool
}

func NewFileSource(dir string, logger *slog.Logger) *FileSource {
	return &FileSource{
		dir:       dir,
		logger:    logger,
		processed: make(map[string]bool),
	}
}

func (f *FileSource) Name() string {
	return "file"
}

func (f *FileSource) Start(_ context.Context) error {
	if err := os.MkdirAll(f.dir, 0755); err != nil {
		return fmt.Errorf("creating audio dir: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	if err := watcher.Add(f.dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watching %s: %w", f.dir, err)
	}
	f.watcher = watcher
	return nil
}

func (f *FileSource) Stop() error {
	if f.watcher != nil {
		return f.watcher.Close()
	}
	return nil
}

func (f *FileSource) NextCommand(ctx context.Context) ([]byte, error) {
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()

		case event, ok := <-f.watcher.Events:
			if !ok {
				return nil, fmt.Errorf("watcher closed")
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if !isAudioFile(event.Name) {
				continue
			}
			if !f.claim(event.Name) {
				continue
			}

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(writeSettleDelay):
			}

			data, err := os.ReadFile(event.Name)
			if err != nil {
				f.logger.Error("reading dropped file", "path", event.Name, "error", err)
				continue
			}
			f.logger.Info("picked up audio file", "path", event.Name, "bytes", len(data))
			return data, nil

		case err, ok := <-f.watcher.Errors:
			if !ok {
				return nil, fmt.Errorf("watcher closed")
			}
			f.logger.Error("watcher error", "error", err)
		}
	}
}

// claim marks a path as consumed; Create followed by Write must not
// deliver the same file twice.
func (f *FileSource) claim(path string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.processed[path] {
		return false
	}
	f.processed[path] = true
	return true
}

func isAudioFile(path string) bool {
	switch filepath.Ext(path) {
	case ".wav", ".mp3", ".m4a", ".webm":
		return true
	}
	return false
}
