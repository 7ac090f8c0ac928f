// Package app ties the dataset, viewports, ledger and navigator into one
// review session and publishes its events.
package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"anpr-validator/internal/config"
	vimage "anpr-validator/internal/image"
	"anpr-validator/internal/ledger"
	"anpr-validator/internal/navigator"
	"anpr-validator/internal/record"
	"anpr-validator/internal/verdict"
	"anpr-validator/internal/viewport"
	"anpr-validator/pkg/geometry"
)

// ErrNoDataset is returned by operations that need a loaded dataset.
var ErrNoDataset = errors.New("no dataset loaded")

// EventType identifies different session events.
type EventType int

const (
	EventDatasetLoaded   EventType = iota // data: DatasetInfo
	EventRecordChanged                    // data: int (record index)
	EventVerdictRecorded                  // data: VerdictEvent
	EventLedgerError                      // data: error
	EventStatsChanged                     // data: navigator.Stats
	EventImagesChanged                    // data: int (record index)
)

// EventListener is called when an event occurs.
type EventListener func(data interface{})

// DatasetInfo describes a freshly loaded dataset.
type DatasetInfo struct {
	Path       string
	LedgerPath string
	Records    int
	ImageDir   string
	Resumed    int // ledger rows carried over from an earlier session
}

// VerdictEvent describes a recorded verdict.
type VerdictEvent struct {
	Index       int
	RecordID    string
	Side        vimage.Side
	Verdict     verdict.Verdict
	FullyJudged bool
}

// Options configures a Session.
type Options struct {
	Resampler         vimage.Resampler
	Scheduler         navigator.Scheduler // nil uses real timers
	AutoAdvance       time.Duration
	ReasonAutoAdvance time.Duration
	SQLiteMirror      string
	Resume            bool
	Canvas            geometry.Size
	WatchInterval     time.Duration // 0 disables image folder polling
}

// OptionsFromConfig converts runtime configuration into session options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Resampler:         vimage.NewResampler(cfg.Resampler),
		AutoAdvance:       cfg.AutoAdvance,
		ReasonAutoAdvance: cfg.ReasonAutoAdvance,
		SQLiteMirror:      cfg.SQLiteMirror,
		Resume:            cfg.Resume,
		Canvas:            geometry.NewSize(float64(cfg.CanvasWidth), float64(cfg.CanvasHeight)),
		WatchInterval:     cfg.WatchInterval,
	}
}

// Session is the state of one review session.
type Session struct {
	mu sync.RWMutex

	opts Options

	dataset    *record.Dataset
	ledger     *ledger.Ledger
	ledgerPath string
	nav        *navigator.Navigator
	resolver   *vimage.Resolver
	watcher    *FolderWatcher

	viewports [2]*viewport.Controller

	// Event listeners
	listeners map[EventType][]EventListener
}

// NewSession creates a session with no dataset.
func NewSession(opts Options) *Session {
	if opts.AutoAdvance == 0 {
		opts.AutoAdvance = navigator.DefaultDelay
	}
	if opts.ReasonAutoAdvance == 0 {
		opts.ReasonAutoAdvance = navigator.DefaultReasonDelay
	}
	s := &Session{
		opts:      opts,
		listeners: make(map[EventType][]EventListener),
	}
	for _, side := range vimage.Sides {
		vp := viewport.New(side, opts.Resampler)
		if !opts.Canvas.IsEmpty() {
			vp.Resize(opts.Canvas)
		}
		s.viewports[side] = vp
	}
	return s
}

// On registers an event listener for the specified event type.
func (s *Session) On(event EventType, listener EventListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners[event] = append(s.listeners[event], listener)
}

// Emit triggers all listeners for the specified event type.
func (s *Session) Emit(event EventType, data interface{}) {
	s.mu.RLock()
	listeners := s.listeners[event]
	s.mu.RUnlock()

	for _, listener := range listeners {
		listener(data)
	}
}

// LoadDataset loads the input CSV, creates its ledger next to it and shows
// the first record. On error the previous session state is kept. Failing to
// write the initial ledger file is not an error: it is published as
// EventLedgerError and retried later.
func (s *Session) LoadDataset(csvPath, imageDir string) error {
	ds, err := record.Load(csvPath)
	if err != nil {
		return err
	}

	ledgerPath := ledger.OutputPath(csvPath)
	store, err := s.openStore(ledgerPath)
	if err != nil {
		return err
	}

	var l *ledger.Ledger
	if s.opts.Resume {
		l, err = ledger.Open(ds, store, ledgerPath)
	} else {
		l, err = ledger.Create(ds, store)
	}
	// A ledger that exists but could not be written is kept dirty and
	// retried on the next verdict or save. Only an unreadable resume is fatal.
	var werr error
	if err != nil {
		if l == nil {
			store.Close()
			return fmt.Errorf("failed to open ledger: %w", err)
		}
		werr = err
		log.Printf("Session: ledger %s not written yet: %v", ledgerPath, err)
	}

	nav := navigator.New(ds.Len(), s.opts.Scheduler)
	nav.SetDelays(s.opts.AutoAdvance, s.opts.ReasonAutoAdvance)
	nav.OnMove(s.recordChanged)

	s.mu.Lock()
	old, oldNav := s.ledger, s.nav
	s.dataset = ds
	s.ledger = l
	s.ledgerPath = ledgerPath
	s.nav = nav
	if imageDir != "" {
		s.resolver = vimage.NewResolver(imageDir)
	}
	dir := ""
	if s.resolver != nil {
		dir = s.resolver.Dir
	}
	s.mu.Unlock()

	if oldNav != nil {
		oldNav.Cancel()
	}
	s.watch(dir)
	if old != nil {
		if err := old.Close(); err != nil {
			log.Printf("Session: closing previous ledger: %v", err)
		}
	}

	log.Printf("Session: loaded %d records from %s, ledger %s", ds.Len(), csvPath, ledgerPath)
	s.Emit(EventDatasetLoaded, DatasetInfo{
		Path:       csvPath,
		LedgerPath: ledgerPath,
		Records:    ds.Len(),
		ImageDir:   dir,
		Resumed:    l.RowCount(),
	})
	s.recordChanged(0)
	s.Emit(EventStatsChanged, nav.Stats())
	if werr != nil {
		s.Emit(EventLedgerError, werr)
	}
	return nil
}

func (s *Session) openStore(ledgerPath string) (ledger.Store, error) {
	csvStore := ledger.NewCSVStore(ledgerPath)
	if s.opts.SQLiteMirror == "" {
		return csvStore, nil
	}
	db, err := ledger.OpenSQLite(s.opts.SQLiteMirror)
	if err != nil {
		return nil, err
	}
	return ledger.MultiStore{csvStore, db}, nil
}

// SetImageDir changes the image folder and reloads the current images.
func (s *Session) SetImageDir(dir string) {
	s.mu.Lock()
	s.resolver = vimage.NewResolver(dir)
	s.mu.Unlock()
	s.watch(dir)
	s.LoadImages()
}

// watch replaces the image folder watcher. Nothing is watched when polling
// is disabled or dir is not a folder.
func (s *Session) watch(dir string) {
	var w *FolderWatcher
	if s.opts.WatchInterval > 0 && dir != "" {
		w = NewFolderWatcher(dir, s.opts.WatchInterval)
	}

	s.mu.Lock()
	old := s.watcher
	if old != nil && w != nil && old.Dir() == w.Dir() {
		s.mu.Unlock()
		return
	}
	s.watcher = w
	s.mu.Unlock()

	if old != nil {
		old.Stop()
	}
	if w != nil {
		w.OnChange(s.ReloadMissing)
		w.Start()
		log.Printf("Session: watching %s every %v", dir, s.opts.WatchInterval)
	}
}

// ReloadMissing retries the sides of the current record that have no image
// loaded, leaving any zoom on the other side untouched. EventImagesChanged
// is emitted when a side picked up its image.
func (s *Session) ReloadMissing() {
	rec, index, err := s.Current()
	if err != nil {
		return
	}
	s.mu.RLock()
	resolver := s.resolver
	s.mu.RUnlock()

	changed := false
	for _, side := range vimage.Sides {
		if s.viewports[side].HasImage() || rec.ImageRef(side) == "" {
			continue
		}
		if s.loadSide(side, rec.ImageRef(side), resolver) {
			changed = true
		}
	}
	if changed {
		log.Printf("Session: picked up new images for record %d", index)
		s.Emit(EventImagesChanged, index)
	}
}

// ImageDir returns the current image folder.
func (s *Session) ImageDir() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.resolver == nil {
		return ""
	}
	return s.resolver.Dir
}

func (s *Session) recordChanged(index int) {
	s.LoadImages()
	s.Emit(EventRecordChanged, index)
}

// Current returns the current record and its index.
func (s *Session) Current() (record.SourceRecord, int, error) {
	s.mu.RLock()
	ds, nav := s.dataset, s.nav
	s.mu.RUnlock()

	if ds == nil {
		return record.SourceRecord{}, 0, ErrNoDataset
	}
	i := nav.Current()
	rec, ok := ds.At(i)
	if !ok {
		return record.SourceRecord{}, i, fmt.Errorf("record %d out of range", i)
	}
	return rec, i, nil
}

// LoadImages resolves and loads both images of the current record into
// their viewports. Failures show a placeholder on the affected side only.
func (s *Session) LoadImages() {
	rec, _, err := s.Current()
	if err != nil {
		return
	}

	s.mu.RLock()
	resolver := s.resolver
	s.mu.RUnlock()

	for _, side := range vimage.Sides {
		s.loadSide(side, rec.ImageRef(side), resolver)
	}
}

// loadSide loads ref into the viewport of side, or a placeholder naming the
// failure. It reports whether an image was loaded.
func (s *Session) loadSide(side vimage.Side, ref string, resolver *vimage.Resolver) bool {
	vp := s.viewports[side]
	if ref == "" || resolver == nil {
		vp.LoadFailed("No image\nor path not set", false)
		return false
	}

	path, err := resolver.Resolve(ref)
	if err != nil {
		log.Printf("Session: %s image %q: %v", side, ref, err)
		vp.LoadFailed("Image not found:\n"+ref, true)
		return false
	}
	layer, err := vimage.Load(path, side)
	if err != nil {
		log.Printf("Session: %v", err)
		vp.LoadFailed("Error loading image:\n"+err.Error(), true)
		return false
	}
	vp.Load(layer.Image, vp.State().Canvas)
	return true
}

// RecordVerdict records v for side of the current record. The verdict is
// kept for the session and the navigator even when persisting fails; the
// write error is returned and published as EventLedgerError.
func (s *Session) RecordVerdict(side vimage.Side, v verdict.Verdict) error {
	rec, index, err := s.Current()
	if err != nil {
		return err
	}

	s.mu.RLock()
	l, nav := s.ledger, s.nav
	s.mu.RUnlock()

	if !v.Valid() {
		return fmt.Errorf("invalid verdict %q", v)
	}
	werr := l.RecordVerdict(rec.ID(), side, v)
	if errors.Is(werr, ledger.ErrUnknownRecord) {
		return werr
	}
	full := nav.MarkAt(index, side, v)

	if werr != nil {
		s.Emit(EventLedgerError, werr)
	}
	s.Emit(EventVerdictRecorded, VerdictEvent{
		Index:       index,
		RecordID:    rec.ID(),
		Side:        side,
		Verdict:     v,
		FullyJudged: full,
	})
	s.Emit(EventStatsChanged, nav.Stats())
	return werr
}

// Next moves to the next record.
func (s *Session) Next() bool {
	nav := s.navigator()
	return nav != nil && nav.Advance()
}

// Previous moves to the previous record.
func (s *Session) Previous() bool {
	nav := s.navigator()
	return nav != nil && nav.Retreat()
}

// Jump moves to record index, clamped.
func (s *Session) Jump(index int) bool {
	nav := s.navigator()
	return nav != nil && nav.Jump(index)
}

func (s *Session) navigator() *navigator.Navigator {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nav
}

// Verdict returns the verdict given this session for side of the current record.
func (s *Session) Verdict(side vimage.Side) verdict.Verdict {
	nav := s.navigator()
	if nav == nil {
		return verdict.None
	}
	return nav.Verdict(nav.Current(), side)
}

// Save forces the ledger to disk.
func (s *Session) Save() error {
	s.mu.RLock()
	l := s.ledger
	s.mu.RUnlock()

	if l == nil {
		return ErrNoDataset
	}
	if err := l.Flush(); err != nil {
		s.Emit(EventLedgerError, err)
		return err
	}
	return nil
}

// ExportJudgements writes the session verdicts as a JSON object keyed
// "<index>_<side>".
func (s *Session) ExportJudgements(path string) error {
	nav := s.navigator()
	if nav == nil {
		return ErrNoDataset
	}
	data, err := json.MarshalIndent(nav.Judgements(), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode judgements: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write judgements: %w", err)
	}
	log.Printf("Session: exported judgements to %s", path)
	return nil
}

// Viewport returns the controller for side.
func (s *Session) Viewport(side vimage.Side) *viewport.Controller {
	return s.viewports[side]
}

// Stats returns the session statistics.
func (s *Session) Stats() navigator.Stats {
	nav := s.navigator()
	if nav == nil {
		return navigator.Stats{}
	}
	return nav.Stats()
}

// LedgerPath returns the path of the ledger file, or "" without a dataset.
func (s *Session) LedgerPath() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ledgerPath
}

// Ledger returns the current ledger, or nil without a dataset.
func (s *Session) Ledger() *ledger.Ledger {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ledger
}

// Dataset returns the loaded dataset, or nil.
func (s *Session) Dataset() *record.Dataset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dataset
}

// Close stops the folder watcher, cancels any pending advance and flushes
// and closes the ledger.
func (s *Session) Close() error {
	s.mu.Lock()
	l, nav, w := s.ledger, s.nav, s.watcher
	s.ledger, s.nav, s.dataset, s.watcher = nil, nil, nil, nil
	s.mu.Unlock()

	if w != nil {
		w.Stop()
	}
	if nav != nil {
		nav.Cancel()
	}
	if l == nil {
		return nil
	}
	ferr := l.Flush()
	return errors.Join(ferr, l.Close())
}
