package credentials

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
)

// Watch notifies about external changes to the credential file. The parent
// directory is watched rather than the file itself, so the watch survives
// the file being removed and recreated.
func (s *FileStore) Watch(ctx context.Context) (<-chan struct{}, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "[FileStore.Watch] fsnotify.NewWatcher")
	}
	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		_ = watcher.Close()
		return nil, errors.Wrap(err, "[FileStore.Watch] watcher.Add")
	}

	ch := make(chan struct{}, 1)
	go func() {
		defer close(ch)
		defer func() { _ = watcher.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Name != s.path {
					continue
				}
				if !event.Has(fsnotify.Write | fsnotify.Create | fsnotify.Remove | fsnotify.Rename) {
					continue
				}
				select {
				case ch <- struct{}{}:
				default: // a notification is already pending
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				s.log.Warn().Err(err).Msg("credential store: watch error")
			}
		}
	}()
	return ch, nil
}
