package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"worldkit/internal/element"
)

func authCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "auth",
		Short: "Validate credentials and show the world they unlock",
		Args:  cobra.NoArgs,
		RunE:  runAuth,
	}
}

func runAuth(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	world, err := client.CheckAuth(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "World: %s (%s)\n", world.Name, world.ID)
	if world.Description != "" {
		fmt.Fprintf(os.Stdout, "%s\n", world.Description)
	}
	fmt.Fprintln(os.Stdout)

	for _, typ := range element.Types() {
		elements, err := client.List(ctx, typ, nil)
		if err != nil {
			return fmt.Errorf("listing %s: %w", typ, err)
		}
		fmt.Fprintf(os.Stdout, "%-14s %4d\n", element.Capitalize(typ), len(elements))
	}
	return nil
}
