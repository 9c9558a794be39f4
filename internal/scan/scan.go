// Package scan implements the parallel, pattern-pruned directory walk.
package scan

import (
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/papersson/fsprompt/internal/paths"
	"github.com/papersson/fsprompt/internal/pattern"
)

// maxWalkerCount caps the walk pool regardless of available parallelism.
const maxWalkerCount = 8

// UnlimitedDepth disables the depth limit of a scan.
const UnlimitedDepth = -1

// Entry is one immutable snapshot row produced by the walk. Entries are not
// kept in sync with the filesystem after the scan completes.
type Entry struct {
	Path   paths.CanonicalPath
	IsDir  bool
	Name   string
	Parent *paths.CanonicalPath
}

// Options configure a directory scan.
type Options struct {
	// MaxDepth admits the root (depth 0) through entries at MaxDepth.
	// UnlimitedDepth removes the limit.
	MaxDepth int
	// IgnorePatterns prune matching entries and their entire subtrees.
	IgnorePatterns []string
}

// Directory walks root in parallel and returns a flat entry list. The walk
// does not follow symlinks and consults no ignore-file convention; only the
// explicit pattern list applies. Every emitted entry has been re-validated
// against the canonical root, so a symlink pointing outside root yields no
// entry. The returned order is unspecified; callers needing order apply
// SortEntries. An unresolvable root yields an empty result.
func Directory(root string, options Options) []Entry {
	canonicalRoot, rootError := paths.Canonicalize(root)
	if rootError != nil {
		return nil
	}
	matcher := pattern.Compile(options.IgnorePatterns)

	var accumulatorMutex sync.Mutex
	var entries []Entry
	appendEntry := func(entry Entry) {
		accumulatorMutex.Lock()
		entries = append(entries, entry)
		accumulatorMutex.Unlock()
	}

	walkerGroup := new(errgroup.Group)
	walkerGroup.SetLimit(walkerCount())

	var walkDirectory func(directory paths.CanonicalPath, depth int)
	walkDirectory = func(directory paths.CanonicalPath, depth int) {
		childEntries, readError := os.ReadDir(directory.String())
		if readError != nil {
			return
		}
		for _, childEntry := range childEntries {
			childName := childEntry.Name()
			if matcher.Matches(childName) {
				continue
			}
			childDepth := depth + 1
			if options.MaxDepth != UnlimitedDepth && childDepth > options.MaxDepth {
				continue
			}
			childPath := filepath.Join(directory.String(), childName)
			canonicalChild, validationError := paths.CanonicalizeWithin(childPath, canonicalRoot)
			if validationError != nil {
				continue
			}
			parentPath := directory
			appendEntry(Entry{
				Path:   canonicalChild,
				IsDir:  childEntry.IsDir(),
				Name:   childName,
				Parent: &parentPath,
			})
			descend := childEntry.IsDir() &&
				childEntry.Type()&os.ModeSymlink == 0 &&
				(options.MaxDepth == UnlimitedDepth || childDepth < options.MaxDepth)
			if descend {
				scheduleDirectory(walkerGroup, walkDirectory, canonicalChild, childDepth)
			}
		}
	}

	appendEntry(Entry{Path: canonicalRoot, IsDir: true, Name: canonicalRoot.Base()})
	scheduleDirectory(walkerGroup, walkDirectory, canonicalRoot, 0)
	_ = walkerGroup.Wait()
	return entries
}

// scheduleDirectory hands a directory to the pool, walking inline when the
// pool is saturated so a worker never blocks on its own pool.
func scheduleDirectory(walkerGroup *errgroup.Group, walkDirectory func(paths.CanonicalPath, int), directory paths.CanonicalPath, depth int) {
	scheduled := walkerGroup.TryGo(func() error {
		walkDirectory(directory, depth)
		return nil
	})
	if !scheduled {
		walkDirectory(directory, depth)
	}
}

// walkerCount bounds the pool by available parallelism, capped at
// maxWalkerCount.
func walkerCount() int {
	available := runtime.GOMAXPROCS(0)
	if available > maxWalkerCount {
		return maxWalkerCount
	}
	if available < 1 {
		return 1
	}
	return available
}

// SortEntries orders entries directories-first, then by case-insensitive
// name, then by resolved path, giving callers a deterministic view of the
// unordered scan result.
func SortEntries(entries []Entry) {
	sort.Slice(entries, func(firstIndex, secondIndex int) bool {
		first, second := entries[firstIndex], entries[secondIndex]
		if first.IsDir != second.IsDir {
			return first.IsDir
		}
		firstName, secondName := strings.ToLower(first.Name), strings.ToLower(second.Name)
		if firstName != secondName {
			return firstName < secondName
		}
		return first.Path.String() < second.Path.String()
	})
}
