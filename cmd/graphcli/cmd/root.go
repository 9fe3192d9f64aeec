package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/untoldecay/graphcep/internal/applog"
	"github.com/untoldecay/graphcep/internal/dbconfig"
)

var (
	dbPath string
	logger *applog.Logger
	tuning dbconfig.Tuning
)

// Root builds the graphcli command tree.
func Root() *cobra.Command {
	root := &cobra.Command{
		Use:   "graphcli",
		Short: "Demo CLI over the graph store and CEP record buffer",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger = applog.New("")
			loaded, err := dbconfig.Load()
			if err != nil {
				return fmt.Errorf("graphcli: loading store tuning: %w", err)
			}
			tuning = loaded
			return nil
		},
	}
	root.PersistentFlags().StringVar(&dbPath, "db", "graph.sqlite", "path to the graph database")

	root.AddCommand(newNodeCmd())
	root.AddCommand(newCEPCmd())
	return root
}
