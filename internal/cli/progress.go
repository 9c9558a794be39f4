package cli

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/papersson/fsprompt/internal/types"
)

// progressRenderer prints pipeline progress lines on stderr. Rendering is
// auto-suppressed when stderr is not a terminal so piped invocations stay
// clean.
type progressRenderer struct {
	enabled    bool
	stageColor *color.Color
}

func newProgressRenderer(enabled bool) *progressRenderer {
	if enabled && !isTerminal(os.Stderr) {
		enabled = false
	}
	return &progressRenderer{
		enabled:    enabled,
		stageColor: color.New(color.FgCyan),
	}
}

func (renderer *progressRenderer) render(update types.ProgressUpdate) {
	if renderer == nil || !renderer.enabled {
		return
	}
	fmt.Fprintf(os.Stderr, "%s %d/%d\n",
		renderer.stageColor.Sprint(string(update.Stage)), update.Current, update.Total)
}

func isTerminal(file *os.File) bool {
	return isatty.IsTerminal(file.Fd()) || isatty.IsCygwinTerminal(file.Fd())
}
