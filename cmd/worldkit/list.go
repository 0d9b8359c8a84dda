package main

import (
	"context"
	"fmt"
	"net/url"
	"os"

	"github.com/spf13/cobra"
)

func listCmd() *cobra.Command {
	var supertype string
	cmd := &cobra.Command{
		Use:   "list <type>",
		Short: "List elements of one type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(args[0], supertype)
		},
	}
	cmd.Flags().StringVar(&supertype, "supertype", "", "Filter by supertype")
	return cmd
}

func runList(typ, supertype string) error {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	var filter url.Values
	if supertype != "" {
		filter = url.Values{"supertype": []string{supertype}}
	}

	elements, err := client.List(ctx, typ, filter)
	if err != nil {
		return err
	}
	if len(elements) == 0 {
		fmt.Fprintln(os.Stdout, "No elements found.")
		return nil
	}

	for _, el := range elements {
		if el.Supertype != "" {
			fmt.Fprintf(os.Stdout, "%s (%s) [%s]\n", el.Name, el.ID, el.Supertype)
		} else {
			fmt.Fprintf(os.Stdout, "%s (%s)\n", el.Name, el.ID)
		}
	}
	return nil
}
