package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/papersson/fsprompt/internal/config"
	"github.com/papersson/fsprompt/internal/format"
)

// createTreeCommand returns the tree subcommand.
func createTreeCommand(logger *zap.Logger) *cobra.Command {
	var ignorePatterns string
	var maxDepth int

	treeCommand := &cobra.Command{
		Use:     treeUse,
		Aliases: []string{treeAlias},
		Short:   treeShortDescription,
		Long:    treeLongDescription,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			settings := config.Load(logger)
			resolvedPatterns := settings.IgnorePatterns
			if command.Flags().Changed(ignoreFlagName) {
				resolvedPatterns = ignorePatterns
			}
			fmt.Fprint(command.OutOrStdout(), format.TreeWithDepth(rootArgument(arguments), config.ParsePatterns(resolvedPatterns), maxDepth))
			return nil
		},
	}
	treeCommand.Flags().StringVar(&ignorePatterns, ignoreFlagName, "", ignoreFlagDescription)
	treeCommand.Flags().IntVar(&maxDepth, depthFlagName, format.DefaultTreeDepth, depthFlagDescription)
	return treeCommand
}
