package watch

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/patternpipe/internal/logfields"
)

// FSNotifyProvider watches directory trees with fsnotify. Directories
// created later are added as they appear, and the files already inside
// them are reported as added.
type FSNotifyProvider struct {
	watcher *fsnotify.Watcher
	events  chan ChangeEvent
	errors  chan error
	done    chan struct{}
	wg      sync.WaitGroup
	once    sync.Once
	logger  *slog.Logger
}

// NewFSNotifyProvider starts watching every root recursively. Roots that do
// not exist are logged and skipped.
func NewFSNotifyProvider(roots []string, logger *slog.Logger) (*FSNotifyProvider, error) {
	if logger == nil {
		logger = slog.Default()
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("fsnotify: %w", err)
	}
	p := &FSNotifyProvider{
		watcher: w,
		events:  make(chan ChangeEvent, 256),
		errors:  make(chan error, 16),
		done:    make(chan struct{}),
		logger:  logger,
	}
	for _, root := range CollapseRoots(roots) {
		native := filepath.FromSlash(root)
		if info, err := os.Stat(native); err != nil || !info.IsDir() {
			logger.Warn("Watch root unavailable; skipping", logfields.Path(root))
			continue
		}
		p.addDirsRecursive(native, false)
	}
	p.wg.Add(1)
	go p.loop()
	return p, nil
}

func (p *FSNotifyProvider) Events() <-chan ChangeEvent { return p.events }
func (p *FSNotifyProvider) Errors() <-chan error       { return p.errors }

// Close stops watching and closes the event stream.
func (p *FSNotifyProvider) Close() error {
	var err error
	p.once.Do(func() {
		close(p.done)
		err = p.watcher.Close()
		p.wg.Wait()
	})
	return err
}

func (p *FSNotifyProvider) loop() {
	defer p.wg.Done()
	defer close(p.events)
	for {
		select {
		case <-p.done:
			return
		case ev, ok := <-p.watcher.Events:
			if !ok {
				return
			}
			p.handle(ev)
		case err, ok := <-p.watcher.Errors:
			if !ok {
				return
			}
			select {
			case p.errors <- err:
			default:
				p.logger.Warn("watcher error", logfields.Error(err))
			}
		}
	}
}

func (p *FSNotifyProvider) handle(ev fsnotify.Event) {
	if shouldIgnoreEvent(ev.Name) {
		return
	}
	switch {
	case ev.Op.Has(fsnotify.Create):
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			p.addDirsRecursive(ev.Name, true)
			return
		}
		p.emit(OpAdd, ev.Name)
	case ev.Op.Has(fsnotify.Write):
		p.emit(OpChange, ev.Name)
	case ev.Op.Has(fsnotify.Remove), ev.Op.Has(fsnotify.Rename):
		p.emit(OpUnlink, ev.Name)
	}
}

func (p *FSNotifyProvider) emit(op Op, path string) {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	ev := ChangeEvent{Op: op, Path: filepath.ToSlash(abs)}
	select {
	case p.events <- ev:
	case <-p.done:
	}
}

// addDirsRecursive watches root and every directory below it. With
// reportFiles, files found are emitted as added.
func (p *FSNotifyProvider) addDirsRecursive(root string, reportFiles bool) {
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if path != root && shouldIgnoreEvent(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if err := p.watcher.Add(path); err != nil {
				p.logger.Warn("watch add failed", slog.String("dir", path), logfields.Error(err))
			}
			return nil
		}
		if reportFiles {
			p.emit(OpAdd, path)
		}
		return nil
	})
}

// CollapseRoots removes duplicates and roots nested inside another root.
func CollapseRoots(roots []string) []string {
	cleaned := make([]string, 0, len(roots))
	for _, r := range roots {
		if r == "" {
			continue
		}
		cleaned = append(cleaned, strings.TrimSuffix(filepath.ToSlash(filepath.Clean(r)), "/"))
	}
	sort.Strings(cleaned)

	var out []string
next:
	for _, r := range cleaned {
		for _, kept := range out {
			if kept == r || strings.HasPrefix(r, kept+"/") {
				continue next
			}
		}
		out = append(out, r)
	}
	return out
}

// shouldIgnoreEvent returns true for hidden, editor temp/swap and OS metadata files.
func shouldIgnoreEvent(path string) bool {
	base := filepath.Base(path)

	if strings.HasPrefix(base, ".") {
		return true
	}
	if strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasSuffix(base, ".swx") ||
		strings.HasSuffix(base, ".tmp") ||
		strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#") {
		return true
	}
	return base == "Thumbs.db" || base == "4913"
}
