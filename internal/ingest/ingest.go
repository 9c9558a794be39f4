// Package ingest reads validated file sets in parallel, choosing a direct
// read or a memory map per file by size.
package ingest

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"sync/atomic"
	"unicode/utf8"

	"golang.org/x/exp/mmap"
	"golang.org/x/sync/errgroup"

	"github.com/papersson/fsprompt/internal/paths"
	"github.com/papersson/fsprompt/internal/utils"
)

// DefaultMmapThreshold is the byte size at which reads switch from a direct
// read to a memory map. Direct reads minimize syscall overhead for the common
// case of many small files; mapping avoids one extra buffered copy for large
// files.
const DefaultMmapThreshold int64 = 256 * 1024

// ErrEncoding indicates file content that is not valid UTF-8.
var ErrEncoding = errors.New("content is not valid UTF-8")

// ErrCancelled indicates a read skipped because cancellation was observed.
var ErrCancelled = errors.New("read cancelled")

// FileResult is the per-path cell of the N-in/N-out read contract: for N
// input paths exactly N results come back, each holding either content or an
// error.
type FileResult struct {
	Path    paths.CanonicalPath
	Content string
	Err     error
}

// Options configure a parallel read batch.
type Options struct {
	// Threshold is the memory-map cutover size; DefaultMmapThreshold when
	// zero or negative.
	Threshold int64
	// Cancel, when set, is polled before each read starts. A task observing
	// cancellation records ErrCancelled instead of reading; an already
	// started read is never interrupted mid-syscall.
	Cancel func() bool
	// OnComplete, when set, receives the completed count after every task
	// finishes, successful or not.
	OnComplete func(completed int)
}

// ReadAll reads every path in parallel across all available cores and returns
// results in input order. Per-path failures never abort the batch.
func ReadAll(filePaths []paths.CanonicalPath, options Options) []FileResult {
	return readBatch(filePaths, nil, options)
}

// ReadAllWithin behaves like ReadAll but re-validates every path against root
// before reading, recording an error wrapping paths.ErrTraversal for any path
// that escapes. This second checkpoint protects against spoofing between the
// scan stage and the read stage.
func ReadAllWithin(filePaths []paths.CanonicalPath, root paths.CanonicalPath, options Options) []FileResult {
	return readBatch(filePaths, &root, options)
}

func readBatch(filePaths []paths.CanonicalPath, root *paths.CanonicalPath, options Options) []FileResult {
	threshold := options.Threshold
	if threshold <= 0 {
		threshold = DefaultMmapThreshold
	}

	results := make([]FileResult, len(filePaths))
	var completedCount atomic.Int64

	readerGroup := new(errgroup.Group)
	readerGroup.SetLimit(runtime.GOMAXPROCS(0))
	for pathIndex, filePath := range filePaths {
		pathIndex, filePath := pathIndex, filePath
		readerGroup.Go(func() error {
			results[pathIndex] = readOne(filePath, root, threshold, options.Cancel)
			if options.OnComplete != nil {
				options.OnComplete(int(completedCount.Add(1)))
			}
			return nil
		})
	}
	_ = readerGroup.Wait()
	return results
}

func readOne(filePath paths.CanonicalPath, root *paths.CanonicalPath, threshold int64, cancel func() bool) FileResult {
	result := FileResult{Path: filePath}

	if root != nil && !paths.IsWithin(filePath, *root) {
		result.Err = fmt.Errorf("%s escapes read root: %w", filePath.String(), paths.ErrTraversal)
		return result
	}
	if cancel != nil && cancel() {
		result.Err = ErrCancelled
		return result
	}

	fileInformation, statError := os.Stat(filePath.String())
	if statError != nil {
		result.Err = fmt.Errorf("stat %s: %w", filePath.String(), statError)
		return result
	}

	var contentBytes []byte
	var readError error
	if fileInformation.Size() < threshold {
		contentBytes, readError = os.ReadFile(filePath.String())
	} else {
		contentBytes, readError = readMapped(filePath.String())
	}
	if readError != nil {
		result.Err = fmt.Errorf("read %s: %w", filePath.String(), readError)
		return result
	}

	if !utf8.Valid(contentBytes) {
		result.Err = fmt.Errorf("%s looks like %s: %w", filePath.String(), utils.SniffContentType(contentBytes), ErrEncoding)
		return result
	}

	result.Content = string(contentBytes)
	return result
}

// readMapped materializes the file through a memory map into a byte buffer.
func readMapped(filePath string) ([]byte, error) {
	mappedReader, openError := mmap.Open(filePath)
	if openError != nil {
		return nil, fmt.Errorf("memory map: %w", openError)
	}
	defer mappedReader.Close()

	contentBytes := make([]byte, mappedReader.Len())
	if len(contentBytes) == 0 {
		return contentBytes, nil
	}
	if _, readError := mappedReader.ReadAt(contentBytes, 0); readError != nil && readError != io.EOF {
		return nil, fmt.Errorf("read mapped bytes: %w", readError)
	}
	return contentBytes, nil
}
