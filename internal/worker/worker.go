// Package worker hosts the background generation actor. One long-lived
// goroutine sequences Scan, Read, and Format for each request, reports
// progress, and honors cancellation. All cross-boundary interaction happens
// over two unbounded queues plus a pair of sequence counters that scope each
// Cancel to the requests submitted before it.
package worker

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/papersson/fsprompt/internal/format"
	"github.com/papersson/fsprompt/internal/ingest"
	"github.com/papersson/fsprompt/internal/paths"
	"github.com/papersson/fsprompt/internal/scan"
	"github.com/papersson/fsprompt/internal/tokenizer"
	"github.com/papersson/fsprompt/internal/types"
	"github.com/papersson/fsprompt/internal/utils"
)

// EventKind identifies the kind of a worker event.
type EventKind string

const (
	// EventKindProgress carries a transient ProgressUpdate.
	EventKindProgress EventKind = "progress"
	// EventKindOutputReady carries the finished document; terminal.
	EventKindOutputReady EventKind = "output_ready"
	// EventKindError carries a warning or terminal error message.
	EventKindError EventKind = "error"
	// EventKindCancelled confirms an observed cancellation; terminal.
	EventKindCancelled EventKind = "cancelled"
)

// warningMessagePrefix marks non-terminal error events that aggregate
// per-file read failures.
const warningMessagePrefix = "Warning: "

// Event is one message emitted by the worker. Every kind except the terminal
// ones is safely droppable by a slow poller.
type Event struct {
	Kind     EventKind
	Progress *types.ProgressUpdate
	Result   *types.GenerationResult
	Message  string
}

// IsWarning reports whether an error event aggregates per-file failures
// rather than signalling a terminal request failure.
func (event Event) IsWarning() bool {
	return event.Kind == EventKindError && strings.HasPrefix(event.Message, warningMessagePrefix)
}

// Worker is the background generation actor. Requests are processed strictly
// one at a time in arrival order; a second request queues behind the first.
type Worker struct {
	logger    *zap.Logger
	threshold int64
	requests  *queue[workItem]
	events    *queue[Event]
	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once

	// submitted numbers requests at submission; cancelledThrough records the
	// highest sequence a Cancel has covered. A request is cancelled exactly
	// when its sequence is at or below cancelledThrough, so a Cancel never
	// leaks onto a request submitted after it.
	submitted        atomic.Uint64
	cancelledThrough atomic.Uint64
}

// workItem pairs a request with its submission sequence number.
type workItem struct {
	sequence uint64
	request  types.GenerationRequest
}

// New starts the worker goroutine. Threshold is the memory-map cutover size
// handed to the ingester; zero selects ingest.DefaultMmapThreshold.
func New(logger *zap.Logger, threshold int64) *Worker {
	if logger == nil {
		logger = zap.NewNop()
	}
	generationWorker := &Worker{
		logger:    logger,
		threshold: threshold,
		requests:  newQueue[workItem](),
		events:    newQueue[Event](),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
	go generationWorker.run()
	return generationWorker
}

// Generate submits a request without blocking. Each submission gets its own
// sequence number, so an earlier Cancel never affects it.
func (generationWorker *Worker) Generate(request types.GenerationRequest) {
	sequence := generationWorker.submitted.Add(1)
	generationWorker.requests.push(workItem{sequence: sequence, request: request})
}

// Cancel covers every request submitted so far and immediately emits a
// Cancelled event. It does not abort a running parallel task synchronously;
// in-flight tasks observe the cancellation at their own checkpoints.
func (generationWorker *Worker) Cancel() {
	generationWorker.cancelledThrough.Store(generationWorker.submitted.Load())
	generationWorker.events.push(Event{Kind: EventKindCancelled})
}

// isCancelled reports whether the request with the given sequence has been
// covered by a Cancel.
func (generationWorker *Worker) isCancelled(sequence uint64) bool {
	return sequence <= generationWorker.cancelledThrough.Load()
}

// PollEvent removes the oldest pending event without blocking.
func (generationWorker *Worker) PollEvent() (Event, bool) {
	return generationWorker.events.tryPop()
}

// Close stops the worker goroutine once the in-flight request finishes and
// waits for it to exit. Further requests are ignored.
func (generationWorker *Worker) Close() {
	generationWorker.closeOnce.Do(func() {
		close(generationWorker.stop)
	})
	<-generationWorker.done
}

func (generationWorker *Worker) run() {
	defer close(generationWorker.done)
	for {
		item, open := generationWorker.requests.pop(generationWorker.stop)
		if !open {
			return
		}
		generationWorker.generate(item)
	}
}

func (generationWorker *Worker) emitProgress(stage types.Stage, current int, total int) {
	generationWorker.events.push(Event{
		Kind:     EventKindProgress,
		Progress: &types.ProgressUpdate{Stage: stage, Current: current, Total: total},
	})
}

// generate runs the Scanning, Reading, and Formatting stages for one request.
func (generationWorker *Worker) generate(item workItem) {
	request := item.request
	requestIdentifier := uuid.NewString()
	startedAt := time.Now()
	requestLogger := generationWorker.logger.With(zap.String("request_id", requestIdentifier))
	requestLogger.Debug("generation started", zap.String("root", request.Root))

	canonicalRoot, rootError := paths.Canonicalize(request.Root)
	if rootError != nil {
		requestLogger.Debug("generation aborted", zap.Error(rootError))
		generationWorker.events.push(Event{Kind: EventKindError, Message: rootError.Error()})
		return
	}

	selectedPaths, selectionFailures := generationWorker.resolveSelection(request, canonicalRoot)
	generationWorker.emitProgress(types.StageScanning, 0, len(selectedPaths))

	if generationWorker.isCancelled(item.sequence) {
		requestLogger.Debug("generation cancelled before reading")
		generationWorker.events.push(Event{Kind: EventKindCancelled})
		return
	}

	totalReadCount := len(selectedPaths)
	generationWorker.emitProgress(types.StageReading, 0, totalReadCount)
	readResults := ingest.ReadAllWithin(selectedPaths, canonicalRoot, ingest.Options{
		Threshold: generationWorker.threshold,
		Cancel:    func() bool { return generationWorker.isCancelled(item.sequence) },
		OnComplete: func(completed int) {
			generationWorker.emitProgress(types.StageReading, completed, totalReadCount)
		},
	})

	if generationWorker.isCancelled(item.sequence) {
		requestLogger.Debug("generation cancelled after reading")
		generationWorker.events.push(Event{Kind: EventKindCancelled})
		return
	}

	generationWorker.emitProgress(types.StageFormatting, 0, 1)

	treeString := ""
	if request.IncludeTree {
		treeString = format.Tree(request.Root, request.IgnorePatterns)
	}

	failedFiles := selectionFailures
	documentFiles := make([]format.File, 0, len(readResults))
	for _, readResult := range readResults {
		relativePath := readResult.Path.Rel(canonicalRoot)
		if readResult.Err != nil {
			failedFiles = append(failedFiles, fmt.Sprintf("%s: %v", relativePath, readResult.Err))
			continue
		}
		documentFiles = append(documentFiles, format.File{RelativePath: relativePath, Content: readResult.Content})
	}

	content := format.Document(request.Format, documentFiles, treeString)

	// Partial success is preferred over total failure: the document is built
	// from whichever files succeeded and failures surface as one warning.
	if len(failedFiles) > 0 && !generationWorker.isCancelled(item.sequence) {
		generationWorker.events.push(Event{
			Kind: EventKindError,
			Message: fmt.Sprintf("%sFailed to read %d file(s): %s",
				warningMessagePrefix, len(failedFiles), strings.Join(failedFiles, ", ")),
		})
	}

	tokenEstimate := tokenizer.EstimateTokens(content)
	generationWorker.emitProgress(types.StageFormatting, 1, 1)

	if generationWorker.isCancelled(item.sequence) {
		requestLogger.Debug("generation cancelled before delivery")
		return
	}
	generationWorker.events.push(Event{
		Kind:   EventKindOutputReady,
		Result: &types.GenerationResult{Content: content, TokenEstimate: tokenEstimate},
	})
	requestLogger.Debug("generation finished",
		zap.Int("files", len(documentFiles)),
		zap.Int("token_estimate", tokenEstimate),
		zap.Duration("elapsed", time.Since(startedAt)))
}

// resolveSelection turns the request's selection into validated canonical
// paths. An empty selection scans the whole root and keeps every non-binary
// file surviving the ignore patterns; an explicit selection validates each
// entry against the root, turning per-path failures into aggregated warnings.
func (generationWorker *Worker) resolveSelection(request types.GenerationRequest, canonicalRoot paths.CanonicalPath) ([]paths.CanonicalPath, []string) {
	if len(request.Selected) == 0 {
		entries := scan.Directory(request.Root, scan.Options{
			MaxDepth:       scan.UnlimitedDepth,
			IgnorePatterns: request.IgnorePatterns,
		})
		scan.SortEntries(entries)
		selectedPaths := make([]paths.CanonicalPath, 0, len(entries))
		for _, entry := range entries {
			if entry.IsDir {
				continue
			}
			if utils.IsFileBinary(entry.Path.String()) {
				continue
			}
			selectedPaths = append(selectedPaths, entry.Path)
		}
		return selectedPaths, nil
	}

	selectedPaths := make([]paths.CanonicalPath, 0, len(request.Selected))
	var failures []string
	for _, selected := range request.Selected {
		resolvedSelection := selected
		if !filepath.IsAbs(resolvedSelection) {
			resolvedSelection = filepath.Join(canonicalRoot.String(), resolvedSelection)
		}
		canonicalSelection, selectionError := paths.CanonicalizeWithin(resolvedSelection, canonicalRoot)
		if selectionError != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", filepath.ToSlash(selected), selectionError))
			continue
		}
		selectedPaths = append(selectedPaths, canonicalSelection)
	}
	return selectedPaths, failures
}
