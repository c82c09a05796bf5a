package cli

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/codeintelx/metis-code-index/internal/pipeline"
	"github.com/codeintelx/metis-code-index/internal/workspace"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
)

func newIndexCmd() *cobra.Command {
	var (
		structureOnly bool
		incremental   bool
		cacheDirFlag  string
	)

	cmd := &cobra.Command{
		Use:   "index [path]",
		Short: "Index a repository and write its code-index.md document",
		Long:  "Walk the given path (or the current directory's project root), extract symbols via tree-sitter queries, and render a markdown index document.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIndex(cmd, args, structureOnly, incremental, cacheDirFlag)
		},
	}

	cmd.Flags().BoolVar(&structureOnly, "structure-only", false, "emit Project Structure and per-file Modules headings without symbol tables; skip extraction")
	cmd.Flags().BoolVar(&incremental, "incremental", false, "reuse the prior run's hash manifest and symbol cache, re-processing only changed files")
	cmd.Flags().StringVar(&cacheDirFlag, "cache-dir", "", "override the cache directory (default: <root>/.metis)")

	return cmd
}

func runIndex(cmd *cobra.Command, args []string, structureOnly, incremental bool, cacheDirFlag string) error {
	start := "."
	if len(args) == 1 {
		start = args[0]
	}

	root, err := workspace.FindRootFrom(start)
	if err != nil {
		return fmt.Errorf("failed to find project root: %w", err)
	}
	cmd.Printf("%s Indexing: %s\n", infoStyle.Render("→"), root)

	cfg, cfgErr := workspace.LoadConfig(workspace.CacheDir(root))
	if cfgErr != nil {
		return fmt.Errorf("failed to load config: %w", cfgErr)
	}

	cacheDir := cacheDirFlag
	if cacheDir == "" {
		cacheDir = workspace.ResolveCacheDir(root, cfg)
	}

	result, err := pipeline.Run(pipeline.Config{
		Root:          root,
		CacheDir:      cacheDir,
		Incremental:   incremental,
		StructureOnly: structureOnly,
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		ExtraSkipDirs: cfg.ExtraSkipDirs,
	})
	if err != nil {
		return fmt.Errorf("failed to index: %w", err)
	}

	cmd.Printf("%s Indexed %d changed, %d unchanged, %d deleted\n",
		successStyle.Render("✓"), result.Changed, result.Unchanged, result.Deleted)
	if result.ParseErrors > 0 {
		cmd.Printf("%s %d files had parse/extract errors (see warnings above)\n",
			warnStyle.Render("!"), result.ParseErrors)
	}
	cmd.Printf("%s Document written to: %s\n", successStyle.Render("✓"), cacheDir)

	return nil
}
