package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sahil13Singh/Mini-Rag-Assesment/internal/adapter/store"
	"github.com/Sahil13Singh/Mini-Rag-Assesment/internal/domain"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Remove every chunk from the local index",
	Long: `Empty the bolt index while keeping its provisioning record, so the
index stays pinned to the embedding dimension and metric it was created with.

Examples:
  minirag reset
  minirag reset --dir ./project`,
	Args: cobra.NoArgs,
	RunE: runReset,
}

func init() {
	rootCmd.AddCommand(resetCmd)
}

func runReset(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	cfg := GetConfig()

	if cfg.Store.Provider != "bolt" {
		return fmt.Errorf("%w: reset works on the bolt store, configured %q", domain.ErrInvalidConfig, cfg.Store.Provider)
	}

	path := cfg.IndexPath(GetRootDir())
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintln(out, "No index found, nothing to reset.")
		return nil
	}

	st, err := store.Open(path, cfg.Embedding.Dimension, cfg.Store.Metric)
	if err != nil {
		return fmt.Errorf("failed to open index: %w", err)
	}
	defer st.Close()

	n, err := st.Count(ctx)
	if err != nil {
		return err
	}
	info, err := st.SchemaInfo()
	if err != nil {
		return fmt.Errorf("failed to read schema: %w", err)
	}
	if err := st.Clear(); err != nil {
		return fmt.Errorf("failed to clear index: %w", err)
	}

	fmt.Fprintf(out, "Removed %d chunks from %s\n", n, path)
	if info != nil {
		fmt.Fprintf(out, "Kept schema v%d (dimension %d, metric %s)\n", info.Version, info.Dimension, info.Metric)
	}
	return nil
}
