package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"worldkit/internal/element"
)

func showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <type> <id>",
		Short: "Show one element with all of its fields",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(args[0], args[1])
		},
	}
}

func runShow(typ, id string) error {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	el, err := client.Get(ctx, typ, id)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "%s\n", el.Name)
	printField("id", el.ID)
	printField("description", el.Description)
	printField("supertype", el.Supertype)
	printField("subtype", el.Subtype)
	printField("image_url", el.ImageURL)
	printField("world", el.World)

	names := make([]string, 0, len(el.Fields))
	for name := range el.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		printField(name, fieldText(el.Fields[name]))
	}
	return nil
}

func printField(name, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(os.Stdout, "  %-20s %s\n", name, value)
}

func fieldText(v any) string {
	if v == nil {
		return ""
	}
	if ids := element.RefIDs(v); len(ids) > 0 {
		if _, ok := v.(string); !ok {
			return strings.Join(ids, ", ")
		}
	}
	return fmt.Sprintf("%v", v)
}
