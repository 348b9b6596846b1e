package diagnostics

import (
	"context"
	"sync"
	"time"

	"go.lsp.dev/protocol"
	"go.uber.org/zap"
)

const (
	workspaceReschedule = 2 * time.Second
	workspaceErrorBudget = 5
	backgroundRotation   = 200 * time.Millisecond
)

// WorkspaceLoop runs the long-running workspace/diagnostic pull (if the
// server advertises workspace diagnostics) and the background rotation of
// non-active visible documents (if the server advertises inter-file
// dependencies), per spec.md §4.6.
type WorkspaceLoop struct {
	conn      Sender
	logger    *zap.Logger
	scheduler *Scheduler
	tracker   *EditorTracker

	workspaceEnabled      bool
	interFileDependencies bool

	stop chan struct{}
	wg   sync.WaitGroup
}

// NewWorkspaceLoop builds a loop bound to scheduler and tracker.
func NewWorkspaceLoop(conn Sender, logger *zap.Logger, scheduler *Scheduler, tracker *EditorTracker, workspaceEnabled, interFileDependencies bool) *WorkspaceLoop {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WorkspaceLoop{
		conn:                  conn,
		logger:                logger,
		scheduler:             scheduler,
		tracker:               tracker,
		workspaceEnabled:      workspaceEnabled,
		interFileDependencies: interFileDependencies,
		stop:                  make(chan struct{}),
	}
}

// Start launches whichever loops are enabled.
func (l *WorkspaceLoop) Start() {
	if l.workspaceEnabled {
		l.wg.Add(1)
		go l.runWorkspacePull()
	}
	if l.interFileDependencies {
		l.wg.Add(1)
		go l.runBackgroundRotation()
	}
}

// Stop halts both loops and waits for them to exit.
func (l *WorkspaceLoop) Stop() {
	select {
	case <-l.stop:
		return
	default:
		close(l.stop)
	}
	l.wg.Wait()
}

func (l *WorkspaceLoop) runWorkspacePull() {
	defer l.wg.Done()

	failures := 0
	for {
		select {
		case <-l.stop:
			return
		default:
		}

		err := l.pullOnce()
		if err != nil {
			failures++
			l.logger.Warn("workspace diagnostic pull failed", zap.Int("failures", failures), zap.Error(err))
			if failures >= workspaceErrorBudget {
				l.logger.Warn("workspace diagnostic pull stopping: error budget exhausted")
				return
			}
		} else {
			failures = 0
		}

		select {
		case <-l.stop:
			return
		case <-time.After(workspaceReschedule):
		}
	}
}

func (l *WorkspaceLoop) pullOnce() error {
	previous := l.collectPreviousResultIDs()

	params := &protocol.WorkspaceDiagnosticParams{
		PreviousResultIDs: previous,
	}

	var report struct {
		Items []wireReport `json:"items"`
	}
	if err := l.conn.Call(context.Background(), "workspace/diagnostic", params, &report); err != nil {
		return err
	}

	for _, item := range report.Items {
		if item.URI == "" {
			continue
		}
		// Document-pull wins if the URI is tracked there too.
		if l.scheduler.TrackedByDocumentPull(item.URI) {
			continue
		}
		full, _, changed := decodeReport(item)
		if changed {
			l.scheduler.col.set(item.URI, full)
		}
	}
	return nil
}

func (l *WorkspaceLoop) collectPreviousResultIDs() []protocol.PreviousResultID {
	uris := l.scheduler.knownURIs()
	out := make([]protocol.PreviousResultID, 0, len(uris))
	for _, uri := range uris {
		id := l.scheduler.ResultID(uri)
		if id == "" {
			continue
		}
		out = append(out, protocol.PreviousResultID{URI: uri, Value: id})
	}
	return out
}

func (l *WorkspaceLoop) runBackgroundRotation() {
	defer l.wg.Done()

	ticker := time.NewTicker(backgroundRotation)
	defer ticker.Stop()

	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			uri, ok := l.tracker.NextBackgroundCandidate()
			if !ok {
				continue
			}
			l.scheduler.Pull(context.Background(), uri, 0, TriggerBackground)
		}
	}
}
