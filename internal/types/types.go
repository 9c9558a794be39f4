// Package types defines the cross-package value types of the generation pipeline.
package types

// Format selects the serialization mode of a generated document.
type Format string

const (
	// FormatXML produces the CDATA-wrapped XML document layout.
	FormatXML Format = "xml"
	// FormatMarkdown produces the fenced-code-block Markdown layout.
	FormatMarkdown Format = "markdown"
)

// IsSupportedFormat reports whether the provided format is recognized.
func IsSupportedFormat(format Format) bool {
	switch format {
	case FormatXML, FormatMarkdown:
		return true
	default:
		return false
	}
}

// Stage identifies a phase of the generation pipeline.
type Stage string

const (
	// StageScanning covers selection resolution before any read starts.
	StageScanning Stage = "scanning"
	// StageReading covers the parallel file ingestion phase.
	StageReading Stage = "reading"
	// StageFormatting covers document serialization.
	StageFormatting Stage = "formatting"
)

// GenerationRequest describes one user-triggered generation. It is consumed
// once by the worker. An empty Selected list means every file under Root that
// survives the ignore patterns.
type GenerationRequest struct {
	Root           string
	Selected       []string
	Format         Format
	IncludeTree    bool
	IgnorePatterns []string
}

// ProgressUpdate is transient pipeline telemetry, emitted repeatedly and never
// persisted.
type ProgressUpdate struct {
	Stage   Stage
	Current int
	Total   int
}

// GenerationResult is the finished document together with its token estimate.
type GenerationResult struct {
	Content       string
	TokenEstimate int
}
