package app

import (
	"os"
	"sync"
	"time"
)

// DefaultWatchInterval is how often the image folder is polled.
const DefaultWatchInterval = 2 * time.Second

// FolderWatcher polls a folder and calls back when its modification time
// moves, which happens whenever files are added, removed or renamed in it.
// Captures copied in while a review is running show up this way.
type FolderWatcher struct {
	mu            sync.Mutex
	dir           string
	baseline      time.Time
	checkInterval time.Duration
	stopCh        chan struct{}
	running       bool
	onChange      func() // Called from the watch goroutine
}

// NewFolderWatcher creates a watcher for dir. Returns nil if dir cannot be
// stat'ed or is not a directory.
func NewFolderWatcher(dir string, checkInterval time.Duration) *FolderWatcher {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil
	}
	if checkInterval <= 0 {
		checkInterval = DefaultWatchInterval
	}
	return &FolderWatcher{
		dir:           dir,
		baseline:      info.ModTime(),
		checkInterval: checkInterval,
	}
}

// OnChange sets the callback invoked when the folder changes. The callback
// runs on the watch goroutine.
func (w *FolderWatcher) OnChange(callback func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = callback
}

// Dir returns the watched folder.
func (w *FolderWatcher) Dir() string {
	return w.dir
}

// Start begins polling in a background goroutine.
func (w *FolderWatcher) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return
	}
	w.running = true
	w.stopCh = make(chan struct{})
	go w.watchLoop(w.stopCh)
}

// Stop stops the watch goroutine. Safe to call more than once.
func (w *FolderWatcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return
	}
	w.running = false
	close(w.stopCh)
}

func (w *FolderWatcher) watchLoop(stop chan struct{}) {
	ticker := time.NewTicker(w.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if !w.Check() {
				continue
			}
			w.mu.Lock()
			cb := w.onChange
			w.mu.Unlock()
			if cb != nil {
				cb()
			}
		}
	}
}

// Check reports whether the folder changed since the last check and moves
// the baseline forward.
func (w *FolderWatcher) Check() bool {
	info, err := os.Stat(w.dir)
	if err != nil {
		return false
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if info.ModTime().Equal(w.baseline) {
		return false
	}
	w.baseline = info.ModTime()
	return true
}
