// Package format serializes read results into XML or Markdown prompt
// documents and renders directory-tree diagrams.
package format

import (
	"fmt"
	"strings"

	"github.com/papersson/fsprompt/internal/types"
)

// File is one successfully read file ready for serialization. RelativePath is
// the forward-slash path below the generation root.
type File struct {
	RelativePath string
	Content      string
}

// Document renders files into the requested format. An empty treeString omits
// the directory-tree section. Serialization over an already-collected result
// set cannot fail, and the same inputs always produce byte-identical output.
func Document(documentFormat types.Format, files []File, treeString string) string {
	var builder strings.Builder
	if documentFormat == types.FormatMarkdown {
		buildMarkdownDocument(&builder, files, treeString)
	} else {
		buildXMLDocument(&builder, files, treeString)
	}
	return builder.String()
}

// buildXMLDocument writes the CDATA-wrapped XML layout. File content goes
// into the CDATA section verbatim; an embedded "]]>" sequence terminates the
// section early and is not escaped.
func buildXMLDocument(builder *strings.Builder, files []File, treeString string) {
	builder.WriteString("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n<codebase>\n")

	if treeString != "" {
		builder.WriteString("  <directory_tree>\n")
		builder.WriteString("<![CDATA[\n")
		builder.WriteString(treeString)
		builder.WriteString("]]>\n")
		builder.WriteString("  </directory_tree>\n\n")
	}

	builder.WriteString("  <files>\n")
	for _, file := range files {
		fmt.Fprintf(builder, "    <file path=\"%s\">\n", file.RelativePath)
		builder.WriteString("<![CDATA[\n")
		writeWithTrailingNewline(builder, file.Content)
		builder.WriteString("]]>\n")
		builder.WriteString("    </file>\n")
	}
	builder.WriteString("  </files>\n</codebase>")
}

// buildMarkdownDocument writes the fenced-code-block Markdown layout.
func buildMarkdownDocument(builder *strings.Builder, files []File, treeString string) {
	builder.WriteString("# Codebase Export\n\n")

	if treeString != "" {
		builder.WriteString("## Directory Structure\n\n```\n")
		builder.WriteString(treeString)
		builder.WriteString("```\n\n")
	}

	builder.WriteString("## Files\n\n")
	for _, file := range files {
		fmt.Fprintf(builder, "### %s\n\n", file.RelativePath)
		fmt.Fprintf(builder, "```%s\n", languageForPath(file.RelativePath))
		writeWithTrailingNewline(builder, file.Content)
		builder.WriteString("```\n\n")
	}
}

// writeWithTrailingNewline writes content, normalizing it to end in a newline
// so closing fences and CDATA terminators land on their own line.
func writeWithTrailingNewline(builder *strings.Builder, content string) {
	builder.WriteString(content)
	if !strings.HasSuffix(content, "\n") {
		builder.WriteByte('\n')
	}
}
