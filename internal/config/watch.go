// README: Bot file provider; serves the current file and reloads on change.
package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Provider holds the most recently loaded bot file. Readers get a
// consistent value per call; Watch swaps in new versions as the operator
// edits the file. A broken edit keeps the last good version.
type Provider struct {
	path string
	log  *zap.Logger
	val  atomic.Pointer[BotFile]
}

func NewProvider(path string, log *zap.Logger) (*Provider, error) {
	bf, err := LoadBotFile(path)
	if err != nil {
		return nil, err
	}
	p := &Provider{path: path, log: log}
	p.val.Store(&bf)
	return p, nil
}

// Current returns the active bot file.
func (p *Provider) Current() BotFile {
	return *p.val.Load()
}

// Watch reloads the bot file whenever it changes, until ctx is done.
// Editors replace files via rename, so the parent directory is watched
// rather than the file itself.
func (p *Provider) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("fsnotify: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	dir := filepath.Dir(p.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	target := filepath.Clean(p.path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			bf, err := LoadBotFile(p.path)
			if err != nil {
				p.log.Warn("bot file reload failed, keeping previous", zap.Error(err))
				continue
			}
			p.val.Store(&bf)
			p.log.Info("bot file reloaded",
				zap.Int64("group_id", bf.GroupID),
				zap.Int("admins", len(bf.Admins)),
				zap.Int("aliases", len(bf.Aliases)),
			)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			p.log.Warn("bot file watcher error", zap.Error(err))
		}
	}
}
