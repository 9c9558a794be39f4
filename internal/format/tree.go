package format

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/papersson/fsprompt/internal/pattern"
)

// DefaultTreeDepth is the fixed recursion limit of the tree renderer.
const DefaultTreeDepth = 10

const (
	branchConnector     = "├── "
	lastBranchConnector = "└── "
	branchPrefix        = "│   "
	lastBranchPrefix    = "    "
	directoryMarker     = "📁"
	fileMarker          = "📄"
)

// Tree renders the live filesystem below root as an ASCII branch diagram up
// to DefaultTreeDepth, pruning entries whose base name matches any compiled
// ignore pattern and sorting directories before files at each level.
func Tree(root string, ignorePatterns []string) string {
	return TreeWithDepth(root, ignorePatterns, DefaultTreeDepth)
}

// TreeWithDepth renders the tree diagram with an explicit depth limit.
func TreeWithDepth(root string, ignorePatterns []string, maxDepth int) string {
	matcher := pattern.Compile(ignorePatterns)
	var builder strings.Builder
	writeTreeNode(&builder, root, "", true, 0, maxDepth, matcher)
	return builder.String()
}

func writeTreeNode(builder *strings.Builder, nodePath string, prefix string, isLast bool, depth int, maxDepth int, matcher *pattern.Matcher) {
	if depth > maxDepth {
		return
	}
	nodeName := filepath.Base(nodePath)
	if matcher.Matches(nodeName) {
		return
	}

	nodeInformation, statError := os.Stat(nodePath)
	isDirectory := statError == nil && nodeInformation.IsDir()

	connector := branchConnector
	if isLast {
		connector = lastBranchConnector
	}
	marker := fileMarker
	if isDirectory {
		marker = directoryMarker
	}
	builder.WriteString(prefix)
	builder.WriteString(connector)
	builder.WriteString(marker)
	builder.WriteByte(' ')
	builder.WriteString(nodeName)
	builder.WriteByte('\n')

	if !isDirectory {
		return
	}
	childEntries, readError := os.ReadDir(nodePath)
	if readError != nil {
		return
	}

	visibleChildren := make([]os.DirEntry, 0, len(childEntries))
	for _, childEntry := range childEntries {
		if matcher.Matches(childEntry.Name()) {
			continue
		}
		visibleChildren = append(visibleChildren, childEntry)
	}
	sort.Slice(visibleChildren, func(firstIndex, secondIndex int) bool {
		first, second := visibleChildren[firstIndex], visibleChildren[secondIndex]
		if first.IsDir() != second.IsDir() {
			return first.IsDir()
		}
		return first.Name() < second.Name()
	})

	childPrefix := prefix + branchPrefix
	if isLast {
		childPrefix = prefix + lastBranchPrefix
	}
	for childIndex, childEntry := range visibleChildren {
		isLastChild := childIndex == len(visibleChildren)-1
		writeTreeNode(builder, filepath.Join(nodePath, childEntry.Name()), childPrefix, isLastChild, depth+1, maxDepth, matcher)
	}
}
