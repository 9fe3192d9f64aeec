package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/untoldecay/graphcep/graph"
)

func newNodeCmd() *cobra.Command {
	node := &cobra.Command{
		Use:   "node",
		Short: "Manage graph nodes",
	}

	var property string

	add := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a node",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			ctx := context.Background()
			f, err := openGraph(ctx)
			if err != nil {
				return err
			}
			defer f.Close()

			id, err := f.AddNode(ctx, args[0], property, property != "")
			if err != nil {
				return err
			}
			fmt.Println(id)
			return nil
		},
	}
	add.Flags().StringVar(&property, "property", "", "optional free-form property text")
	node.AddCommand(add)

	connect := &cobra.Command{
		Use:   "connect <parent-id> <child-id>",
		Short: "Connect two nodes as parent/child in the nested-sets forest",
		Args:  cobra.ExactArgs(2),
		RunE: func(c *cobra.Command, args []string) error {
			ctx := context.Background()
			f, err := openGraph(ctx)
			if err != nil {
				return err
			}
			defer f.Close()
			return f.Connect(ctx, args[0], args[1])
		},
	}
	node.AddCommand(connect)

	list := &cobra.Command{
		Use:   "list",
		Short: "List every node id, ordered by name",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			ctx := context.Background()
			f, err := openGraph(ctx)
			if err != nil {
				return err
			}
			defer f.Close()

			ids, err := f.GetIDList(ctx)
			if err != nil {
				return err
			}
			for _, id := range ids {
				fmt.Println(id)
			}
			return nil
		},
	}
	node.AddCommand(list)

	return node
}

// openGraph opens the graph facade at dbPath and applies the loaded store
// tuning (internal/dbconfig) to its underlying handle before returning it.
func openGraph(ctx context.Context) (*graph.Facade, error) {
	f, err := graph.Open(dbPath, logger)
	if err != nil {
		return nil, err
	}
	h, err := f.Handle(ctx)
	if err != nil {
		return nil, err
	}
	tuning.Apply(ctx, h)
	return f, nil
}
