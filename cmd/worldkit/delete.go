package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <type> <id>",
		Short: "Delete an element from the world",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDelete(args[0], args[1])
		},
	}
}

func runDelete(typ, id string) error {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	if err := client.Delete(ctx, typ, id); err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "Deleted %s %s\n", typ, id)
	return nil
}
