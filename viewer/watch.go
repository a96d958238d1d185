package viewer

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/soypat/stlview"
)

// watchDebounce is how long Watch waits after the last change event
// before reloading. Editors and exporters often write a file in bursts.
const watchDebounce = 150 * time.Millisecond

// Watch loads the STL file at path and loads it again every time it is
// written or replaced, calling fn with every result. Stale results are
// passed to fn with ErrStaleLoad like any other error.
// Watch blocks until ctx is done and then returns ctx.Err().
func (v *Viewer) Watch(ctx context.Context, path string, fn func(Result, error)) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	// Watching the directory survives editors that replace the file.
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return err
	}
	log := stlview.Logger().With("path", abs)
	reload := func() {
		res, err := v.LoadFile(abs)
		fn(res, err)
	}
	reload()

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.Events:
			if !ok {
				return ctx.Err()
			}
			if filepath.Clean(ev.Name) != abs || !(ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)) {
				continue
			}
			log.Debug("file changed", "op", ev.Op.String())
			pending = time.After(watchDebounce)
		case err, ok := <-w.Errors:
			if !ok {
				return ctx.Err()
			}
			log.Warn("watch error", "err", err)
		case <-pending:
			pending = nil
			reload()
		}
	}
}
