package format

import (
	"path"
	"strings"
)

// languageByExtension maps file extensions to fence language tags. Unknown
// extensions produce an untagged fence.
var languageByExtension = map[string]string{
	"rs":    "rust",
	"js":    "javascript",
	"ts":    "typescript",
	"py":    "python",
	"java":  "java",
	"c":     "c",
	"h":     "c",
	"cpp":   "cpp",
	"hpp":   "cpp",
	"cc":    "cpp",
	"cxx":   "cpp",
	"cs":    "csharp",
	"go":    "go",
	"rb":    "ruby",
	"php":   "php",
	"swift": "swift",
	"kt":    "kotlin",
	"scala": "scala",
	"r":     "r",
	"m":     "objective-c",
	"pl":    "perl",
	"lua":   "lua",
	"sh":    "bash",
	"bash":  "bash",
	"sql":   "sql",
	"html":  "html",
	"htm":   "html",
	"css":   "css",
	"xml":   "xml",
	"json":  "json",
	"yaml":  "yaml",
	"yml":   "yaml",
	"toml":  "toml",
	"md":    "markdown",
}

// languageForPath infers the fence language tag from the file extension.
func languageForPath(relativePath string) string {
	extension := strings.TrimPrefix(path.Ext(relativePath), ".")
	return languageByExtension[extension]
}
