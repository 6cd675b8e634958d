package detect

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

var watchDebounce = 100 * time.Millisecond

// Watcher re-analyses subject files when they change.
type Watcher struct {
	d       *Detector
	watcher *fsnotify.Watcher
	files   map[string]bool // explicitly named files
	dirs    map[string]bool // directories whose .xml files all count
}

// NewWatcher starts watching paths, which may be subject files or
// directories searched recursively. Call Run to handle changes.
func (d *Detector) NewWatcher(paths []string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{d: d, watcher: fw, files: make(map[string]bool), dirs: make(map[string]bool)}

	for _, p := range paths {
		if err := w.add(filepath.Clean(p)); err != nil {
			fw.Close()
			return nil, fmt.Errorf("error adding %s to watcher: %w", p, err)
		}
	}
	return w, nil
}

func (w *Watcher) add(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		w.files[path] = true
		return w.watcher.Add(filepath.Dir(path))
	}
	return filepath.Walk(path, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			w.dirs[p] = true
			return w.watcher.Add(p)
		}
		return nil
	})
}

func (w *Watcher) wants(name string) bool {
	name = filepath.Clean(name)
	if w.files[name] {
		return true
	}
	return filepath.Ext(name) == SubjectExt && w.dirs[filepath.Dir(name)]
}

// debouncer coalesces bursts of events per file into one send on ready.
type debouncer struct {
	delay  time.Duration
	ready  chan string
	timers map[string]*time.Timer
}

func newDebouncer(delay time.Duration) *debouncer {
	return &debouncer{delay: delay, ready: make(chan string), timers: make(map[string]*time.Timer)}
}

func (b *debouncer) touch(ctx context.Context, name string) {
	if t, ok := b.timers[name]; ok {
		// A timer that already fired has a send pending, and the file
		// is read only after that send is received.
		if t.Stop() {
			t.Reset(b.delay)
		}
		return
	}
	b.timers[name] = time.AfterFunc(b.delay, func() {
		select {
		case b.ready <- name:
		case <-ctx.Done():
		}
	})
}

func (b *debouncer) done(name string) {
	delete(b.timers, name)
}

func (b *debouncer) stop() {
	for _, t := range b.timers {
		t.Stop()
	}
}

// Run handles change events until ctx is done, calling onResult with the
// analysis of each changed file. Bursts of writes to one file are
// analysed once.
func (w *Watcher) Run(ctx context.Context, onResult func(FileResult)) error {
	b := newDebouncer(watchDebounce)
	defer b.stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if !w.wants(event.Name) {
				continue
			}
			b.touch(ctx, event.Name)

		case name := <-b.ready:
			b.done(name)
			w.d.logger.Debug("subject file changed", zap.String("file", name))
			onResult(w.d.ProcessFile(ctx, name))

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.d.logger.Warn("watch error", zap.Error(err))
		}
	}
}

func (w *Watcher) Close() error {
	return w.watcher.Close()
}
