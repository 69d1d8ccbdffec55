package channel

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watch delivers a wake-up whenever one artifact file in the channel
// directory is created, written or renamed into place. Polling remains the
// source of truth; a Watch only shortens the latency between a write and the
// next check.
type Watch struct {
	watcher *fsnotify.Watcher
	name    string
	c       chan struct{}
	done    chan struct{}
	log     *zap.Logger
}

// WatchRequests watches for request artifacts.
func (c *Channel) WatchRequests() (*Watch, error) {
	return c.watch(RequestFile)
}

// WatchDecisions watches for decision artifacts.
func (c *Channel) WatchDecisions() (*Watch, error) {
	return c.watch(DecisionFile)
}

func (c *Channel) watch(name string) (*Watch, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(c.dir); err != nil {
		fw.Close()
		return nil, err
	}
	w := &Watch{
		watcher: fw,
		name:    name,
		c:       make(chan struct{}, 1),
		done:    make(chan struct{}),
		log:     c.log,
	}
	go w.run()
	return w, nil
}

// C returns the wake-up channel. It is safe to call on a nil Watch, which
// returns a nil channel that never fires.
func (w *Watch) C() <-chan struct{} {
	if w == nil {
		return nil
	}
	return w.c
}

// Close stops the watch and waits for its goroutine to exit. Safe on nil.
func (w *Watch) Close() {
	if w == nil {
		return
	}
	if err := w.watcher.Close(); err != nil {
		w.log.Debug("closing watcher", zap.Error(err))
	}
	<-w.done
}

func (w *Watch) run() {
	defer close(w.done)
	for {
		select {
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(ev.Name) != w.name {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			select {
			case w.c <- struct{}{}:
			default:
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Debug("watcher error", zap.Error(err))
		}
	}
}
