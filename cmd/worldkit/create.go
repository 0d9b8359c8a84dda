package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"worldkit/internal/element"
)

func createCmd() *cobra.Command {
	var description string
	var supertype string
	var subtype string
	cmd := &cobra.Command{
		Use:   "create <type> <name>",
		Short: "Create a new element in the world",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreate(args[0], args[1], description, supertype, subtype)
		},
	}
	cmd.Flags().StringVar(&description, "description", "", "Element description")
	cmd.Flags().StringVar(&supertype, "supertype", "", "Element supertype")
	cmd.Flags().StringVar(&subtype, "subtype", "", "Element subtype")
	return cmd
}

func runCreate(typ, name, description, supertype, subtype string) error {
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

	el := &element.Element{
		Name:        name,
		Description: description,
		Supertype:   supertype,
		Subtype:     subtype,
		World:       world.ID,
	}
	created, err := client.Create(ctx, typ, el)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "Created %s %s (%s)\n", typ, created.Name, created.ID)
	return nil
}
