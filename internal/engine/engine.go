package engine

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sync/atomic"
	"time"

	"github.com/Yunitra/AnyDownloadManager/internal/engine/events"
	"github.com/Yunitra/AnyDownloadManager/internal/engine/state"
	"github.com/Yunitra/AnyDownloadManager/internal/engine/types"
	"github.com/Yunitra/AnyDownloadManager/internal/utils"
)

// Errors surfaced by the engine's operations.
var (
	// ErrCanceled reports a user-initiated cancellation. It is distinct
	// from failure: the part file stays on disk.
	ErrCanceled = errors.New("canceled")
	// ErrNotFound reports an operation against an id the registry does
	// not know.
	ErrNotFound = errors.New("not found")
	// ErrUnknownID reports a resume attempt for an unregistered download.
	ErrUnknownID = errors.New("unknown download id")
	// ErrNoRangeSupport reports a resume attempt against a server that
	// did not advertise byte ranges.
	ErrNoRangeSupport = errors.New("server does not support range resuming")
	// ErrUnknownTotal reports a resume attempt without a known length.
	ErrUnknownTotal = errors.New("unknown total size; cannot resume")
)

var defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) " +
	"Chrome/120.0.0.0 Safari/537.36"

// Options configures a new Engine. Zero values get sensible defaults; only
// History stays optional.
type Options struct {
	// Bus receives lifecycle events. Defaults to a discarding emitter.
	Bus events.Emitter
	// Registry holds live download state. Defaults to a fresh one.
	Registry *state.Registry
	// History, when set, records downloads across restarts.
	History *state.History
	// UserAgent overrides the default browser-like User-Agent.
	UserAgent string
}

// Engine drives multi-connection HTTP downloads: probing, segmented and
// single-stream transfers, resumption, cancellation, and deletion.
type Engine struct {
	reg     *state.Registry
	bus     events.Emitter
	history *state.History
	ua      string

	probeClient  *http.Client
	streamClient *http.Client
}

func New(opts Options) *Engine {
	e := &Engine{
		reg:     opts.Registry,
		bus:     opts.Bus,
		history: opts.History,
		ua:      opts.UserAgent,
	}
	if e.reg == nil {
		e.reg = state.NewRegistry()
	}
	if e.bus == nil {
		e.bus = events.Nop{}
	}
	if e.ua == "" {
		e.ua = defaultUserAgent
	}
	e.probeClient = &http.Client{Timeout: types.ProbeTimeout}
	// Transfers can legitimately run for hours; rely on cancellation
	// instead of a client deadline.
	e.streamClient = &http.Client{}
	return e
}

// Registry exposes the live registry, mainly for hosts that re-register
// persisted downloads before resuming them.
func (e *Engine) Registry() *state.Registry {
	return e.reg
}

// Register inserts a download under an existing id, typically one loaded
// back from history. The resume controller only consults the registry.
func (e *Engine) Register(id string, meta types.DownloadMeta) {
	e.reg.Insert(id, meta)
}

// lastID makes ids strictly increasing even when two downloads start within
// the same millisecond.
var lastID atomic.Int64

func newDownloadID() string {
	for {
		now := time.Now().UnixMilli()
		prev := lastID.Load()
		if now <= prev {
			now = prev + 1
		}
		if lastID.CompareAndSwap(prev, now) {
			return fmt.Sprintf("dl-%d", now)
		}
	}
}

// clampThreads bounds a requested worker count to [MinThreads, MaxThreads].
func clampThreads(n int) int {
	if n < types.MinThreads {
		return types.MinThreads
	}
	if n > types.MaxThreads {
		return types.MaxThreads
	}
	return n
}

// StartRequest carries the parameters of StartDownload. Threads outside
// [1, 32] are clamped. DestDir and FileName are optional; empty values fall
// back to the OS download directory and the probed filename.
type StartRequest struct {
	URL      string
	Threads  int
	DestDir  string
	FileName string
}

// StartDownload probes the URL, plans paths, registers the download, emits
// download_started, and runs the transfer to a terminal state. On success it
// returns the final file path.
func (e *Engine) StartDownload(ctx context.Context, req StartRequest) (string, error) {
	threads := clampThreads(req.Threads)

	info, err := e.probe(ctx, req.URL)
	if err != nil {
		return "", err
	}

	name := req.FileName
	if name == "" {
		name = info.filename
	}
	name = utils.SanitizeFilename(name)
	if name == "" || name == "." {
		name = types.DefaultFilename
	}

	dir := req.DestDir
	if dir == "" {
		dir = DefaultDownloadDir()
	}
	dest, temp, err := planPaths(dir, name)
	if err != nil {
		return "", err
	}

	id := newDownloadID()
	meta := types.DownloadMeta{
		URL:          req.URL,
		Dest:         dest,
		Temp:         temp,
		Total:        info.total,
		TotalKnown:   info.totalKnown,
		AcceptRanges: info.acceptRanges,
	}
	flag := e.reg.Insert(id, meta)
	e.recordHistory(id, name, meta, state.StatusActive)

	started := events.StartedPayload{
		ID:       id,
		URL:      req.URL,
		FileName: name,
		DestDir:  dir,
	}
	if info.totalKnown {
		total := info.total
		started.Total = &total
	}
	e.bus.Emit(events.ChannelStarted, started)

	utils.Debug("start %s: url=%s dest=%s total=%d known=%v ranges=%v threads=%d",
		id, req.URL, dest, info.total, info.totalKnown, info.acceptRanges, threads)

	if !info.totalKnown || !info.acceptRanges || threads == 1 {
		return e.runSingle(ctx, id, meta, flag)
	}
	if err := e.runSegmented(ctx, id, meta, threads, flag, 0); err != nil {
		return "", err
	}
	return dest, nil
}

// CancelDownload sets the cancel flag of a running download. Workers observe
// it between chunk writes and wind the transfer down to download_canceled.
func (e *Engine) CancelDownload(id string) error {
	flag, ok := e.reg.CancelFlag(id)
	if !ok {
		return ErrNotFound
	}
	flag.Store(true)
	return nil
}

// DeleteDownload force-stops a download and removes every trace of it: the
// cancel flag is raised first so running workers stop writing, then metadata
// and both on-disk artifacts go away.
func (e *Engine) DeleteDownload(id string) error {
	if flag, ok := e.reg.CancelFlag(id); ok {
		flag.Store(true)
	}

	meta, ok := e.reg.RemoveMeta(id)
	if !ok && e.history != nil {
		// Not live in this process; fall back to the persisted record.
		if entry, err := e.history.Get(id); err == nil && entry != nil {
			meta, ok = entry.Meta(), true
		}
	}
	if ok {
		removeIfExists(meta.Temp)
		removeIfExists(meta.Dest)
	}
	e.reg.RemoveCancel(id)

	if e.history != nil {
		if err := e.history.Remove(id); err != nil {
			utils.Debug("delete %s: history remove: %v", id, err)
		}
	}
	return nil
}

func removeIfExists(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		utils.Debug("remove %s: %v", path, err)
	}
}

// finalize promotes temp to dest, replacing any stale file already there.
func finalize(temp, dest string) error {
	if _, err := os.Stat(dest); err == nil {
		_ = os.Remove(dest)
	}
	if err := os.Rename(temp, dest); err != nil {
		return fmt.Errorf("rename part file: %w", err)
	}
	return nil
}

// complete emits the terminal success event and drops the live entries.
func (e *Engine) complete(id, dest string) {
	e.bus.Emit(events.ChannelCompleted, events.CompletedPayload{ID: id, Path: dest})
	e.reg.Remove(id)
	e.setHistoryStatus(id, state.StatusCompleted)
}

// canceled emits the terminal cancel event and drops the live entries. The
// part file stays on disk.
func (e *Engine) canceled(id string) error {
	e.bus.Emit(events.ChannelCanceled, events.CanceledPayload{ID: id})
	e.reg.Remove(id)
	e.setHistoryStatus(id, state.StatusCanceled)
	return ErrCanceled
}

// failed emits the terminal failure event. Metadata stays registered and the
// part file stays on disk, so a transient failure can still be resumed; only
// the cancel flag entry is dropped.
func (e *Engine) failed(id string, err error) error {
	e.bus.Emit(events.ChannelFailed, events.FailedPayload{ID: id, Error: err.Error()})
	e.reg.RemoveCancel(id)
	e.setHistoryStatus(id, state.StatusFailed)
	return err
}

func (e *Engine) recordHistory(id, filename string, meta types.DownloadMeta, status string) {
	if e.history == nil {
		return
	}
	if _, err := e.history.Record(id, filename, meta, status); err != nil {
		utils.Debug("history record %s: %v", id, err)
	}
}

func (e *Engine) setHistoryStatus(id, status string) {
	if e.history == nil {
		return
	}
	if err := e.history.SetStatus(id, status); err != nil {
		utils.Debug("history status %s=%s: %v", id, status, err)
	}
}
