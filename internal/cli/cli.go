// Package cli provides the fsprompt command line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/papersson/fsprompt/internal/services/clipboard"
	"github.com/papersson/fsprompt/internal/utils"
)

const (
	rootUse              = "fsprompt"
	rootShortDescription = "fsprompt command line interface"
	rootLongDescription  = `fsprompt turns a directory tree and a file selection into a single
prompt document for a language model.
Use generate to build an XML or Markdown document, tree to preview the
directory diagram, and watch to regenerate on filesystem changes.`

	versionFlagName        = "version"
	versionFlagDescription = "display application version"
	versionTemplate        = "fsprompt version: %s\n"

	defaultRootPath = "."

	generateUse              = "generate [root]"
	generateAlias            = "g"
	generateShortDescription = "generate a prompt document (" + generateAlias + ")"
	generateLongDescription  = `Build a single XML or Markdown document from the files below root.
With no --select flags every non-binary file surviving the ignore patterns
is included; explicit selections are validated against root and never
pre-filtered.`
	generateUsageExample = `  # Export the current directory as Markdown to stdout
  fsprompt generate --format markdown

  # Export two files, copy the document, report a precise token count
  fsprompt generate --select main.go --select go.mod --copy --model gpt-4o .`

	treeUse              = "tree [root]"
	treeAlias            = "t"
	treeShortDescription = "render the directory diagram (" + treeAlias + ")"
	treeLongDescription  = `Render the live directory tree below root with ignore patterns applied.`

	watchUse              = "watch [root]"
	watchAlias            = "w"
	watchShortDescription = "regenerate on filesystem changes (" + watchAlias + ")"
	watchLongDescription  = `Watch root recursively and rebuild the document into --output after each
debounced change batch.`

	formatFlagName           = "format"
	formatFlagDescription    = "output format (xml or markdown)"
	outputFlagName           = "output"
	outputFlagDescription    = "write the document to this file instead of stdout"
	copyFlagName             = "copy"
	copyFlagDescription      = "copy the generated document to the clipboard"
	ignoreFlagName           = "ignore"
	ignoreFlagDescription    = "comma-separated ignore patterns (exact, glob, or ^regex$)"
	selectFlagName           = "select"
	selectFlagDescription    = "path below root to include (repeatable; default: all files)"
	noTreeFlagName           = "no-tree"
	noTreeFlagDescription    = "omit the directory tree section"
	thresholdFlagName        = "threshold"
	thresholdFlagDescription = "byte size at which reads switch to memory mapping"
	modelFlagName            = "model"
	modelFlagDescription     = "report a precise token count for this model"
	progressFlagName         = "progress"
	progressFlagDescription  = "render pipeline progress on stderr"
	depthFlagName            = "depth"
	depthFlagDescription     = "maximum tree depth"

	invalidFormatMessage       = "invalid format value '%s'"
	outputRequiredMessage      = "watch requires --output"
	generationCancelledMessage = "generation cancelled"
)

// Execute runs the fsprompt application.
func Execute(logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	rootCommand := createRootCommand(logger)
	return rootCommand.Execute()
}

// createRootCommand builds the root Cobra command.
func createRootCommand(logger *zap.Logger) *cobra.Command {
	var showVersion bool

	rootCommand := &cobra.Command{
		Use:          rootUse,
		Short:        rootShortDescription,
		Long:         rootLongDescription,
		SilenceUsage: true,
		RunE: func(command *cobra.Command, arguments []string) error {
			return command.Help()
		},
		PersistentPreRun: func(command *cobra.Command, arguments []string) {
			if showVersion {
				fmt.Printf(versionTemplate, utils.ApplicationVersion())
				os.Exit(0)
			}
		},
	}
	rootCommand.PersistentFlags().BoolVar(&showVersion, versionFlagName, false, versionFlagDescription)
	documentCopier := clipboard.NewService()
	rootCommand.AddCommand(
		createGenerateCommand(logger, documentCopier),
		createTreeCommand(logger),
		createWatchCommand(logger, documentCopier),
	)
	rootCommand.InitDefaultHelpCmd()
	rootCommand.InitDefaultCompletionCmd()
	return rootCommand
}

// rootArgument extracts the optional root path argument.
func rootArgument(arguments []string) string {
	if len(arguments) > 0 {
		return arguments[0]
	}
	return defaultRootPath
}
