package worker_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/papersson/fsprompt/internal/types"
	"github.com/papersson/fsprompt/internal/worker"
)

// terminalWait bounds how long a test polls for a terminal event.
const terminalWait = 10 * time.Second

func writeWorkerFixture(t *testing.T, path string, content string) {
	t.Helper()
	if writeError := os.WriteFile(path, []byte(content), 0o644); writeError != nil {
		t.Fatalf("write %s: %v", path, writeError)
	}
}

// drainUntilTerminal polls the event queue until a terminal event arrives,
// returning every observed event.
func drainUntilTerminal(t *testing.T, generationWorker *worker.Worker) []worker.Event {
	t.Helper()
	deadline := time.Now().Add(terminalWait)
	var observed []worker.Event
	for time.Now().Before(deadline) {
		event, pending := generationWorker.PollEvent()
		if !pending {
			time.Sleep(time.Millisecond)
			continue
		}
		observed = append(observed, event)
		switch event.Kind {
		case worker.EventKindOutputReady, worker.EventKindCancelled:
			return observed
		case worker.EventKindError:
			if !event.IsWarning() {
				return observed
			}
		}
	}
	t.Fatalf("no terminal event within %v; observed %d events", terminalWait, len(observed))
	return nil
}

func TestGenerateMarkdownEndToEnd(t *testing.T) {
	rootDirectory := t.TempDir()
	writeWorkerFixture(t, filepath.Join(rootDirectory, "a.rs"), "fn main(){}")
	writeWorkerFixture(t, filepath.Join(rootDirectory, "b.txt"), "hi")

	generationWorker := worker.New(zap.NewNop(), 0)
	defer generationWorker.Close()

	generationWorker.Generate(types.GenerationRequest{
		Root:        rootDirectory,
		Selected:    []string{"a.rs", "b.txt"},
		Format:      types.FormatMarkdown,
		IncludeTree: false,
	})

	observed := drainUntilTerminal(t, generationWorker)
	terminal := observed[len(observed)-1]
	if terminal.Kind != worker.EventKindOutputReady {
		t.Fatalf("expected OutputReady, got %s (%s)", terminal.Kind, terminal.Message)
	}
	content := terminal.Result.Content
	if !strings.Contains(content, "### a.rs\n\n```rust\nfn main(){}\n```\n\n") {
		t.Fatalf("expected rust fence for a.rs, got:\n%s", content)
	}
	if !strings.Contains(content, "### b.txt\n\n```\nhi\n```\n\n") {
		t.Fatalf("expected untagged fence for b.txt, got:\n%s", content)
	}
	if strings.Contains(content, "Directory Structure") {
		t.Fatal("expected no tree section with IncludeTree disabled")
	}
	expectedEstimate := len(content) / 4
	if terminal.Result.TokenEstimate != expectedEstimate {
		t.Fatalf("expected token estimate %d, got %d", expectedEstimate, terminal.Result.TokenEstimate)
	}
}

func TestGenerateScansWholeRootWhenSelectionEmpty(t *testing.T) {
	rootDirectory := t.TempDir()
	writeWorkerFixture(t, filepath.Join(rootDirectory, "keep.go"), "package keep")
	writeWorkerFixture(t, filepath.Join(rootDirectory, ".hidden"), "secret")

	generationWorker := worker.New(zap.NewNop(), 0)
	defer generationWorker.Close()

	generationWorker.Generate(types.GenerationRequest{
		Root:           rootDirectory,
		Format:         types.FormatMarkdown,
		IgnorePatterns: []string{".*"},
	})

	observed := drainUntilTerminal(t, generationWorker)
	terminal := observed[len(observed)-1]
	if terminal.Kind != worker.EventKindOutputReady {
		t.Fatalf("expected OutputReady, got %s (%s)", terminal.Kind, terminal.Message)
	}
	if !strings.Contains(terminal.Result.Content, "### keep.go") {
		t.Fatalf("expected keep.go in document, got:\n%s", terminal.Result.Content)
	}
	if strings.Contains(terminal.Result.Content, ".hidden") {
		t.Fatalf("expected .hidden to be pruned, got:\n%s", terminal.Result.Content)
	}
}

func TestGenerateAggregatesPerFileFailures(t *testing.T) {
	rootDirectory := t.TempDir()
	writeWorkerFixture(t, filepath.Join(rootDirectory, "good.txt"), "still here")

	generationWorker := worker.New(zap.NewNop(), 0)
	defer generationWorker.Close()

	generationWorker.Generate(types.GenerationRequest{
		Root:     rootDirectory,
		Selected: []string{"good.txt", "missing.txt"},
		Format:   types.FormatMarkdown,
	})

	observed := drainUntilTerminal(t, generationWorker)
	var sawWarning bool
	for _, event := range observed {
		if event.IsWarning() {
			sawWarning = true
			if !strings.Contains(event.Message, "Failed to read 1 file(s)") {
				t.Fatalf("expected aggregated warning, got %q", event.Message)
			}
			if !strings.Contains(event.Message, "missing.txt") {
				t.Fatalf("expected failing relative path in warning, got %q", event.Message)
			}
		}
	}
	if !sawWarning {
		t.Fatal("expected one aggregated warning event")
	}
	terminal := observed[len(observed)-1]
	if terminal.Kind != worker.EventKindOutputReady {
		t.Fatalf("expected partial success to still deliver output, got %s", terminal.Kind)
	}
	if !strings.Contains(terminal.Result.Content, "### good.txt") {
		t.Fatalf("expected surviving file in document, got:\n%s", terminal.Result.Content)
	}
}

func TestGenerateInvalidRootIsTerminalError(t *testing.T) {
	missingRoot := filepath.Join(t.TempDir(), "missing")

	generationWorker := worker.New(zap.NewNop(), 0)
	defer generationWorker.Close()

	generationWorker.Generate(types.GenerationRequest{Root: missingRoot, Format: types.FormatXML})
	observed := drainUntilTerminal(t, generationWorker)
	terminal := observed[len(observed)-1]
	if terminal.Kind != worker.EventKindError || terminal.IsWarning() {
		t.Fatalf("expected terminal error for invalid root, got %s (%s)", terminal.Kind, terminal.Message)
	}
}

func TestCancelBeforeProgressSuppressesDelivery(t *testing.T) {
	rootDirectory := t.TempDir()
	for fileIndex := 0; fileIndex < 40; fileIndex++ {
		writeWorkerFixture(t,
			filepath.Join(rootDirectory, "file"+string(rune('a'+fileIndex%26))+string(rune('a'+fileIndex/26))+".txt"),
			strings.Repeat("load ", 200))
	}

	for trial := 0; trial < 25; trial++ {
		generationWorker := worker.New(zap.NewNop(), 0)
		generationWorker.Generate(types.GenerationRequest{
			Root:   rootDirectory,
			Format: types.FormatMarkdown,
		})
		generationWorker.Cancel()
		generationWorker.Close()

		var sawCancelled bool
		for {
			event, pending := generationWorker.PollEvent()
			if !pending {
				break
			}
			if event.Kind == worker.EventKindOutputReady {
				t.Fatalf("trial %d: OutputReady delivered after cancellation", trial)
			}
			if event.Kind == worker.EventKindCancelled {
				sawCancelled = true
			}
		}
		if !sawCancelled {
			t.Fatalf("trial %d: expected a Cancelled event", trial)
		}
	}
}

func TestCancelDoesNotRevivePriorRequest(t *testing.T) {
	cancelledRoot := t.TempDir()
	freshRoot := t.TempDir()
	for fileIndex := 0; fileIndex < 30; fileIndex++ {
		writeWorkerFixture(t,
			filepath.Join(cancelledRoot, "cancelled"+string(rune('a'+fileIndex%26))+string(rune('a'+fileIndex/26))+".txt"),
			strings.Repeat("load ", 200))
	}
	writeWorkerFixture(t, filepath.Join(freshRoot, "fresh.txt"), "fresh")

	for trial := 0; trial < 10; trial++ {
		generationWorker := worker.New(zap.NewNop(), 0)
		generationWorker.Generate(types.GenerationRequest{Root: cancelledRoot, Format: types.FormatMarkdown})
		generationWorker.Cancel()
		generationWorker.Generate(types.GenerationRequest{Root: freshRoot, Format: types.FormatMarkdown})

		observed := drainUntilTerminal(t, generationWorker)
		terminal := observed[len(observed)-1]
		if terminal.Kind == worker.EventKindOutputReady && strings.Contains(terminal.Result.Content, "cancelled") {
			t.Fatalf("trial %d: cancelled request delivered output", trial)
		}

		var sawFresh bool
		deadline := time.Now().Add(terminalWait)
		for !sawFresh && time.Now().Before(deadline) {
			event, pending := generationWorker.PollEvent()
			if !pending {
				time.Sleep(time.Millisecond)
				continue
			}
			switch event.Kind {
			case worker.EventKindOutputReady:
				if strings.Contains(event.Result.Content, "cancelled") {
					t.Fatalf("trial %d: cancelled request delivered output", trial)
				}
				if strings.Contains(event.Result.Content, "fresh.txt") {
					sawFresh = true
				}
			case worker.EventKindError:
				if !event.IsWarning() {
					t.Fatalf("trial %d: unexpected terminal error %q", trial, event.Message)
				}
			}
		}
		if terminal.Kind == worker.EventKindOutputReady && strings.Contains(terminal.Result.Content, "fresh.txt") {
			sawFresh = true
		}
		if !sawFresh {
			t.Fatalf("trial %d: request submitted after Cancel never delivered", trial)
		}
		generationWorker.Close()
	}
}

func TestRequestsQueueInArrivalOrder(t *testing.T) {
	firstRoot := t.TempDir()
	secondRoot := t.TempDir()
	writeWorkerFixture(t, filepath.Join(firstRoot, "first.txt"), "first")
	writeWorkerFixture(t, filepath.Join(secondRoot, "second.txt"), "second")

	generationWorker := worker.New(zap.NewNop(), 0)
	defer generationWorker.Close()

	generationWorker.Generate(types.GenerationRequest{Root: firstRoot, Format: types.FormatMarkdown})
	generationWorker.Generate(types.GenerationRequest{Root: secondRoot, Format: types.FormatMarkdown})

	firstObserved := drainUntilTerminal(t, generationWorker)
	firstTerminal := firstObserved[len(firstObserved)-1]
	if firstTerminal.Kind != worker.EventKindOutputReady || !strings.Contains(firstTerminal.Result.Content, "first.txt") {
		t.Fatalf("expected the first request delivered first, got %s", firstTerminal.Kind)
	}
	secondObserved := drainUntilTerminal(t, generationWorker)
	secondTerminal := secondObserved[len(secondObserved)-1]
	if secondTerminal.Kind != worker.EventKindOutputReady || !strings.Contains(secondTerminal.Result.Content, "second.txt") {
		t.Fatalf("expected the second request delivered second, got %s", secondTerminal.Kind)
	}
}

func TestProgressCoversAllStages(t *testing.T) {
	rootDirectory := t.TempDir()
	writeWorkerFixture(t, filepath.Join(rootDirectory, "staged.txt"), "content")

	generationWorker := worker.New(zap.NewNop(), 0)
	defer generationWorker.Close()

	generationWorker.Generate(types.GenerationRequest{Root: rootDirectory, Format: types.FormatXML})
	observed := drainUntilTerminal(t, generationWorker)

	stages := make(map[types.Stage]bool)
	for _, event := range observed {
		if event.Kind == worker.EventKindProgress {
			stages[event.Progress.Stage] = true
		}
	}
	for _, stage := range []types.Stage{types.StageScanning, types.StageReading, types.StageFormatting} {
		if !stages[stage] {
			t.Fatalf("expected progress for stage %s, observed %v", stage, stages)
		}
	}
}
