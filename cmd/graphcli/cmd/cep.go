package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/untoldecay/graphcep/cep"
	"github.com/untoldecay/graphcep/internal/schema"
	"github.com/untoldecay/graphcep/internal/store"
)

// newCEPCmd wires the CEP record buffer into a single-shot CLI flow.
// The Arena is process-local (spec.md §4.6 keeps it in memory, with no
// on-disk representation of its own), so this demo collapses ingest,
// promote, and persist into one invocation rather than pretending a
// CLI process can hold pending rows open between separate commands.
func newCEPCmd() *cobra.Command {
	cepCmd := &cobra.Command{
		Use:   "cep",
		Short: "Ingest a CSV batch into the CEP record buffer and persist it",
	}

	ingest := &cobra.Command{
		Use:   "ingest <table> <csv-file>",
		Short: "Ingest a CSV file, promote it to archived, and persist it to the store",
		Args:  cobra.ExactArgs(2),
		RunE: func(c *cobra.Command, args []string) error {
			tableName, csvPath := args[0], args[1]

			data, err := os.ReadFile(csvPath)
			if err != nil {
				return fmt.Errorf("cep ingest: %w", err)
			}

			arena := cep.NewArena(logger)
			n, err := arena.IngestCSV(tableName, string(data))
			if err != nil {
				return fmt.Errorf("cep ingest: %w", err)
			}

			batchID, moved, err := arena.MovePendingToArchived(tableName)
			if err != nil {
				return fmt.Errorf("cep ingest: %w", err)
			}

			ctx := context.Background()
			h, err := store.Open(ctx, dbPath, logger)
			if err != nil {
				return fmt.Errorf("cep ingest: %w", err)
			}
			defer h.Close()
			tuning.Apply(ctx, h)

			mgr := schema.NewManager(logger)
			written, err := arena.PersistArchived(ctx, h, mgr, tableName)
			if err != nil {
				return fmt.Errorf("cep ingest: %w", err)
			}

			fmt.Printf("ingested %d rows, batch %s, archived %d, persisted %d\n", n, batchID, moved, written)
			return nil
		},
	}
	cepCmd.AddCommand(ingest)

	return cepCmd
}
