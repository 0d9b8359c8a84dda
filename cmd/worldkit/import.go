package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"worldkit/internal/export"
)

func importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import elements from an export file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(args[0])
		},
	}
}

func runImport(path string) error {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	doc, err := export.ReadFile(path)
	if err != nil {
		return err
	}

	result, err := export.New(client).Import(ctx, doc)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "Imported: %d created, %d updated, %d failed\n",
		result.Created, result.Updated, result.Failed)
	for _, importErr := range result.Errors {
		fmt.Fprintf(os.Stderr, "  %v\n", importErr)
	}
	return nil
}
