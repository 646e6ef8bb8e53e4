package syncer

import (
	"collsync/internal/config"
	"collsync/internal/logger"
	"collsync/internal/model"
	"collsync/internal/remote"
	"collsync/internal/vault"
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrNotConnected is returned when a pass is requested before a remote
// connection has been configured.
var ErrNotConnected = errors.New("remote connection not configured")

const (
	defaultStartupDelay = 10 * time.Second

	// selfWriteWindow is how long a downloader write suppresses watcher
	// events for the same path. Without it the save hook would re-trigger
	// on the engine's own writes and loop forever.
	selfWriteWindow = 5 * time.Second
)

// ReportSink receives the report of each finished pass.
type ReportSink interface {
	SavePass(report *model.PassReport) error
}

// Engine orchestrates synchronization passes: upload phase fully first,
// then download phase. It is triggered manually, by the interval timer,
// by the startup timer, or by the save hook; at most one pass runs at a
// time, and triggers arriving mid-pass coalesce into a single follow-up.
type Engine struct {
	cfg   *config.Config
	vault *vault.Vault
	sink  ReportSink

	// StartupDelay defers the sync-on-startup pass so the host settles
	// first. Overridable for tests.
	StartupDelay time.Duration

	mu         sync.Mutex
	store      remote.Storage
	state      model.EngineState
	lastErr    string
	lastPass   *model.PassSummary
	startedAt  time.Time
	selfWrites map[string]time.Time

	passMu    sync.Mutex
	triggerCh chan struct{}
	cancel    context.CancelFunc
	doneCh    chan struct{}
}

// New builds an engine. store may be nil when no connection is
// configured yet; sink may be nil to skip history persistence.
func New(cfg *config.Config, v *vault.Vault, store remote.Storage, sink ReportSink) *Engine {
	return &Engine{
		cfg:          cfg,
		vault:        v,
		sink:         sink,
		StartupDelay: defaultStartupDelay,
		store:        store,
		state:        model.StateIdle,
		selfWrites:   make(map[string]time.Time),
		triggerCh:    make(chan struct{}, 1),
	}
}

// Reconfigure swaps the remote connection handle wholesale. A pass in
// flight keeps the handle it started with; the next pass picks up the
// new one.
func (e *Engine) Reconfigure(store remote.Storage) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.store = store
}

// Start launches the trigger loop: optional startup-delay pass, the
// interval ticker, and coalesced manual/save-hook requests.
func (e *Engine) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	e.doneCh = make(chan struct{})

	e.mu.Lock()
	e.startedAt = time.Now()
	e.mu.Unlock()

	go e.run(ctx)

	logger.Log.Info("sync engine started",
		zap.Int("interval_minutes", e.cfg.SyncInterval),
		zap.Bool("sync_on_startup", e.cfg.SyncOnStartup),
		zap.Bool("sync_on_save", e.cfg.SyncOnSave))
}

// Stop cancels the engine context; a running pass stops at the next
// per-file boundary.
func (e *Engine) Stop() {
	if e.cancel == nil {
		return
	}

	e.cancel()
	<-e.doneCh
	logger.Log.Info("sync engine stopped")
}

func (e *Engine) run(ctx context.Context) {
	defer close(e.doneCh)

	var startupC <-chan time.Time
	if e.cfg.SyncOnStartup {
		startupC = time.After(e.StartupDelay)
	}

	var tickerC <-chan time.Time
	if e.cfg.SyncInterval > 0 {
		ticker := time.NewTicker(time.Duration(e.cfg.SyncInterval) * time.Minute)
		defer ticker.Stop()
		tickerC = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return

		case <-startupC:
			startupC = nil
			e.pass(ctx)

		case <-tickerC:
			e.pass(ctx)

		case <-e.triggerCh:
			e.pass(ctx)
		}
	}
}

func (e *Engine) pass(ctx context.Context) {
	if _, err := e.RunOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Log.Warn("sync pass failed",
			zap.Error(err))
	}
}

// SyncNow requests a pass. If one is already running the request is
// coalesced: exactly one follow-up pass executes afterwards, never a
// concurrent one.
func (e *Engine) SyncNow() {
	e.requestSync()
}

// OnFileChanged is the save hook. Events for paths the downloader wrote
// moments ago are the engine's own writes and are dropped.
func (e *Engine) OnFileChanged(rel string) {
	if !e.cfg.SyncOnSave {
		return
	}

	if e.isSelfWrite(rel) {
		logger.Log.Debug("ignoring own write",
			zap.String("path", rel))
		return
	}

	logger.Log.Debug("file changed, requesting sync",
		zap.String("path", rel))
	e.requestSync()
}

func (e *Engine) requestSync() {
	select {
	case e.triggerCh <- struct{}{}:
	default:
	}
}

// RunOnce executes one full upload-then-download pass. Connection-scope
// failures surface as the returned error and put the engine in the
// error state; per-file failures only appear in the report.
func (e *Engine) RunOnce(ctx context.Context) (*model.PassReport, error) {
	e.passMu.Lock()
	defer e.passMu.Unlock()

	store := e.storage()
	if store == nil || !e.cfg.Connected() {
		e.setState(model.StateIdle, "not connected")
		return nil, ErrNotConnected
	}

	e.setState(model.StateSyncing, "")
	logger.Log.Info("sync pass started")

	report := model.NewPassReport()
	root := e.cfg.CollectivePath

	uploader := NewUploader(store, e.vault, e.cfg.LocalFolder, root)
	results, err := uploader.Run(ctx)
	report.Add(results...)

	if err == nil {
		downloader := NewDownloader(store, e.vault, e.cfg.LocalFolder, root)
		results, err = downloader.Run(ctx)
		report.Add(results...)
		e.recordSelfWrites(results)
	}

	report.FinishedAt = time.Now()
	report.Err = err

	if err != nil {
		e.setState(model.StateError, err.Error())
	} else {
		e.setState(model.StateConnected, "")
	}

	e.mu.Lock()
	summary := report.Summary()
	e.lastPass = &summary
	e.mu.Unlock()

	if e.sink != nil {
		if saveErr := e.sink.SavePass(report); saveErr != nil {
			logger.Log.Warn("failed to save pass report",
				zap.Error(saveErr))
		}
	}

	logger.Log.Info("sync pass finished",
		zap.Int("uploaded", report.Uploaded),
		zap.Int("downloaded", report.Downloaded),
		zap.Int("skipped", report.Skipped),
		zap.Int("failed", report.Failed),
		zap.Error(err))

	return report, err
}

func (e *Engine) Snapshot() model.EngineSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	return model.EngineSnapshot{
		State:     e.state,
		StartedAt: e.startedAt,
		LastError: e.lastErr,
		LastPass:  e.lastPass,
	}
}

func (e *Engine) storage() remote.Storage {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store
}

func (e *Engine) setState(state model.EngineState, errMsg string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = state
	e.lastErr = errMsg
}

func (e *Engine) recordSelfWrites(results []model.SyncResult) {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := time.Now()
	for _, res := range results {
		if res.Written && res.Err == nil {
			e.selfWrites[res.LocalPath] = now
		}
	}
}

func (e *Engine) isSelfWrite(rel string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	t, ok := e.selfWrites[rel]
	if !ok {
		return false
	}

	if time.Since(t) > selfWriteWindow {
		delete(e.selfWrites, rel)
		return false
	}

	return true
}
