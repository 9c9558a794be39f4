package cli

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/papersson/fsprompt/internal/services/clipboard"
	"github.com/papersson/fsprompt/internal/utils"
	"github.com/papersson/fsprompt/internal/watch"
	"github.com/papersson/fsprompt/internal/worker"
)

// createWatchCommand returns the watch subcommand.
func createWatchCommand(logger *zap.Logger, copier clipboard.Copier) *cobra.Command {
	var options generationOptions

	watchCommand := &cobra.Command{
		Use:     watchUse,
		Aliases: []string{watchAlias},
		Short:   watchShortDescription,
		Long:    watchLongDescription,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			if options.outputPath == "" {
				return errors.New(outputRequiredMessage)
			}
			resolved, resolveError := resolveGeneration(command, &options, rootArgument(arguments), logger)
			if resolveError != nil {
				return resolveError
			}

			watcher, watchError := watch.New(resolved.request.Root, watch.DefaultDebounce)
			if watchError != nil {
				return watchError
			}
			defer watcher.Close()

			generationWorker := worker.New(logger, resolved.threshold)
			defer generationWorker.Close()

			renderer := newProgressRenderer(options.showProgress)
			if runError := regenerate(generationWorker, renderer, &options, resolved, copier, logger); runError != nil {
				return runError
			}

			for {
				select {
				case batch := <-watcher.Batches():
					fmt.Fprintf(os.Stderr, "%s: %d change(s), regenerating\n",
						utils.FormatTimestamp(time.Now()), len(batch))
					if runError := regenerate(generationWorker, renderer, &options, resolved, copier, logger); runError != nil {
						return runError
					}
				case notifierError := <-watcher.Errors():
					logger.Warn(fmt.Sprintf("watch error: %v", notifierError))
				}
			}
		},
	}
	addGenerationFlags(watchCommand, &options)
	return watchCommand
}

// regenerate runs one generation pass and writes the document to the output
// file.
func regenerate(generationWorker *worker.Worker, renderer *progressRenderer, options *generationOptions, resolved resolvedGeneration, copier clipboard.Copier, logger *zap.Logger) error {
	generationWorker.Generate(resolved.request)
	result, generationError := awaitGeneration(generationWorker, renderer)
	if generationError != nil {
		return generationError
	}
	return deliverResult(result, options, resolved.model, copier, logger)
}
