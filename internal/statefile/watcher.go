package statefile

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// Watcher keeps the latest parsed state in memory, reloading the file
// whenever it changes on disk. Watching the parent directory instead of
// the file itself survives the atomic rename that Write performs.
type Watcher struct {
	path    string
	watcher *fsnotify.Watcher

	mu    sync.RWMutex
	state *State
	err   error

	closed chan struct{}
}

// Watch starts watching the state file at path. The initial load
// happens synchronously so Latest reflects any pre-existing file right
// away.
func Watch(path string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}

	if err := fsw.Add(filepath.Dir(path)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}

	w := &Watcher{
		path:    path,
		watcher: fsw,
		closed:  make(chan struct{}),
	}
	w.reload()

	go w.watchLoop()
	return w, nil
}

// Latest returns the most recently loaded state. Before any successful
// load it returns ErrNoState when the file never existed, or the load
// error otherwise.
func (w *Watcher) Latest() (*State, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.state == nil {
		if w.err != nil {
			return nil, w.err
		}
		return nil, ErrNoState
	}
	st := *w.state
	return &st, nil
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.closed)
	return w.watcher.Close()
}

func (w *Watcher) watchLoop() {
	for {
		select {
		case <-w.closed:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Name != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				w.reload()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logrus.WithError(err).Warn("state file watcher error")
		}
	}
}

// reload re-reads the file. A transient read failure keeps the previous
// state so a half-finished writer does not blank the server.
func (w *Watcher) reload() {
	st, err := Read(w.path)

	w.mu.Lock()
	defer w.mu.Unlock()

	if err != nil {
		if w.state == nil {
			w.err = err
		} else {
			logrus.WithError(err).Warn("state file reload failed, keeping previous state")
		}
		return
	}
	w.state = st
	w.err = nil
}
