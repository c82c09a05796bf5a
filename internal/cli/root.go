package cli

import (
	"github.com/spf13/cobra"
)

// Version is the version of the codeintelx CLI.
// Update this constant manually on every release.
const Version = "v0.1.0"

// NewRootCmd creates the root command for codeintelx.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "codeintelx",
		Short:   "Multi-language code symbol indexer",
		Long:    "Codeintelx walks a repository, extracts function/type/class symbols via tree-sitter queries, and writes a markdown index document.",
		Version: Version,
	}

	rootCmd.AddCommand(newIndexCmd())

	return rootCmd
}
