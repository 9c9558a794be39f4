package cli

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/papersson/fsprompt/internal/config"
	"github.com/papersson/fsprompt/internal/services/clipboard"
	"github.com/papersson/fsprompt/internal/tokenizer"
	"github.com/papersson/fsprompt/internal/types"
	"github.com/papersson/fsprompt/internal/utils"
	"github.com/papersson/fsprompt/internal/worker"
)

// eventPollInterval paces the non-blocking event queue poll, standing in for
// the caller's UI tick.
const eventPollInterval = 50 * time.Millisecond

// errGenerationCancelled reports a request terminated by cancellation.
var errGenerationCancelled = errors.New(generationCancelledMessage)

// generationOptions stores the generate/watch flag values.
type generationOptions struct {
	format          string
	outputPath      string
	copyToClipboard bool
	ignorePatterns  string
	selectedPaths   []string
	noTree          bool
	threshold       int64
	model           string
	showProgress    bool
}

// addGenerationFlags registers the flags shared by generate and watch.
func addGenerationFlags(command *cobra.Command, options *generationOptions) {
	command.Flags().StringVar(&options.format, formatFlagName, "", formatFlagDescription)
	command.Flags().StringVar(&options.outputPath, outputFlagName, "", outputFlagDescription)
	command.Flags().StringVar(&options.ignorePatterns, ignoreFlagName, "", ignoreFlagDescription)
	command.Flags().StringArrayVar(&options.selectedPaths, selectFlagName, nil, selectFlagDescription)
	command.Flags().BoolVar(&options.noTree, noTreeFlagName, false, noTreeFlagDescription)
	command.Flags().Int64Var(&options.threshold, thresholdFlagName, 0, thresholdFlagDescription)
	command.Flags().StringVar(&options.model, modelFlagName, "", modelFlagDescription)
	command.Flags().BoolVar(&options.showProgress, progressFlagName, false, progressFlagDescription)
	registerCopyFlag(command.Flags(), &options.copyToClipboard)
}

// resolvedGeneration is a generation request plus the preferences resolved
// around it with flag > file > default precedence.
type resolvedGeneration struct {
	request   types.GenerationRequest
	threshold int64
	model     string
}

// resolveGeneration merges flags with the loaded preferences into a request.
func resolveGeneration(command *cobra.Command, options *generationOptions, root string, logger *zap.Logger) (resolvedGeneration, error) {
	settings := config.Load(logger)

	resolvedFormat := settings.Format
	if command.Flags().Changed(formatFlagName) {
		resolvedFormat = options.format
	}
	if !types.IsSupportedFormat(types.Format(resolvedFormat)) {
		return resolvedGeneration{}, fmt.Errorf(invalidFormatMessage, resolvedFormat)
	}

	resolvedPatterns := settings.IgnorePatterns
	if command.Flags().Changed(ignoreFlagName) {
		resolvedPatterns = options.ignorePatterns
	}

	resolvedThreshold := settings.MmapThreshold
	if command.Flags().Changed(thresholdFlagName) {
		resolvedThreshold = options.threshold
	}

	resolvedModel := ""
	if command.Flags().Changed(modelFlagName) {
		resolvedModel = options.model
		if resolvedModel == "" {
			resolvedModel = settings.TokenizerModel
		}
	}

	return resolvedGeneration{
		request: types.GenerationRequest{
			Root:           root,
			Selected:       options.selectedPaths,
			Format:         types.Format(resolvedFormat),
			IncludeTree:    settings.IncludeTree && !options.noTree,
			IgnorePatterns: config.ParsePatterns(resolvedPatterns),
		},
		threshold: resolvedThreshold,
		model:     resolvedModel,
	}, nil
}

// createGenerateCommand returns the generate subcommand. The copier is
// injected so tests can observe clipboard delivery without a real clipboard.
func createGenerateCommand(logger *zap.Logger, copier clipboard.Copier) *cobra.Command {
	var options generationOptions

	generateCommand := &cobra.Command{
		Use:     generateUse,
		Aliases: []string{generateAlias},
		Short:   generateShortDescription,
		Long:    generateLongDescription,
		Example: generateUsageExample,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			resolved, resolveError := resolveGeneration(command, &options, rootArgument(arguments), logger)
			if resolveError != nil {
				return resolveError
			}

			generationWorker := worker.New(logger, resolved.threshold)
			defer generationWorker.Close()
			generationWorker.Generate(resolved.request)

			result, generationError := awaitGeneration(generationWorker, newProgressRenderer(options.showProgress))
			if generationError != nil {
				return generationError
			}
			return deliverResult(result, &options, resolved.model, copier, logger)
		},
	}
	addGenerationFlags(generateCommand, &options)
	return generateCommand
}

// awaitGeneration polls the worker's event queue on a short ticker until a
// terminal event arrives. Warning events surface on stderr without ending the
// wait; only a terminal error or cancellation fails the command.
func awaitGeneration(generationWorker *worker.Worker, renderer *progressRenderer) (types.GenerationResult, error) {
	ticker := time.NewTicker(eventPollInterval)
	defer ticker.Stop()

	for {
		<-ticker.C
		for {
			event, pending := generationWorker.PollEvent()
			if !pending {
				break
			}
			switch event.Kind {
			case worker.EventKindProgress:
				renderer.render(*event.Progress)
			case worker.EventKindError:
				if event.IsWarning() {
					fmt.Fprintln(os.Stderr, event.Message)
					continue
				}
				return types.GenerationResult{}, errors.New(event.Message)
			case worker.EventKindCancelled:
				return types.GenerationResult{}, errGenerationCancelled
			case worker.EventKindOutputReady:
				return *event.Result, nil
			}
		}
	}
}

// deliverResult writes the document to its destination and reports token
// counts. Clipboard and precise-count failures are warnings, not command
// failures.
func deliverResult(result types.GenerationResult, options *generationOptions, model string, copier clipboard.Copier, logger *zap.Logger) error {
	if options.outputPath != "" {
		if writeError := os.WriteFile(options.outputPath, []byte(result.Content), 0o644); writeError != nil {
			return fmt.Errorf("write %s: %w", options.outputPath, writeError)
		}
	} else {
		fmt.Print(result.Content)
	}

	if options.copyToClipboard && copier != nil {
		if copyError := copier.Copy(result.Content); copyError != nil {
			logger.Warn(fmt.Sprintf("clipboard copy failed: %v", copyError))
		}
	}

	fmt.Fprintf(os.Stderr, "Generated %s (~%d tokens)\n",
		utils.FormatFileSize(int64(len(result.Content))), result.TokenEstimate)

	if model != "" {
		counter, counterError := tokenizer.NewCounter(model)
		if counterError != nil {
			logger.Warn(fmt.Sprintf("precise token count unavailable: %v", counterError))
			return nil
		}
		preciseCount, countError := counter.CountString(result.Content)
		if countError != nil {
			logger.Warn(fmt.Sprintf("precise token count failed: %v", countError))
			return nil
		}
		fmt.Fprintf(os.Stderr, "%s tokens: %d\n", counter.Name(), preciseCount)
	}
	return nil
}
