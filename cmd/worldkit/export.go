package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"worldkit/internal/element"
	"worldkit/internal/export"
)

func exportCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export every element of the world to a JSON file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default <world>-<date>.json)")
	return cmd
}

func runExport(output string) error {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	doc, err := export.New(client).Export(ctx)
	if err != nil {
		return err
	}

	if output == "" {
		output = export.DefaultFilename(doc.Metadata.WorldName, time.Now())
	}
	if err := export.WriteFile(output, doc); err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "Exported %d elements to %s\n", doc.Metadata.ElementCount, output)
	for _, typ := range doc.SectionTypes() {
		key := element.Capitalize(typ)
		fmt.Fprintf(os.Stdout, "  %-14s %4d\n", key, doc.Metadata.Counts[key])
	}
	return nil
}
