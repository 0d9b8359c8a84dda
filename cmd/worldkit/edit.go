package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"worldkit/internal/api"
	"worldkit/internal/element"
	"worldkit/internal/relation"
)

func editCmd() *cobra.Command {
	var sets []string
	var force bool
	cmd := &cobra.Command{
		Use:   "edit <type> <id>",
		Short: "Update fields on an element",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEdit(args[0], args[1], sets, force)
		},
	}
	cmd.Flags().StringArrayVar(&sets, "set", nil, "Field assignment as name=value (repeatable)")
	cmd.Flags().BoolVar(&force, "force", false, "Link targets from other worlds without confirmation")
	return cmd
}

func runEdit(typ, id string, sets []string, force bool) error {
	if len(sets) == 0 {
		return fmt.Errorf("at least one --set is required")
	}

	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	fields := make(map[string]any, len(sets))
	for _, set := range sets {
		name, raw, ok := strings.Cut(set, "=")
		if !ok {
			return fmt.Errorf("invalid --set %q, want name=value", set)
		}
		name = strings.TrimSpace(name)
		fields[name] = parseFieldValue(element.Lookup(name), raw)
	}

	if err := checkLinkWorlds(ctx, client, typ, id, fields, force); err != nil {
		return err
	}

	updated, err := client.Update(ctx, typ, id, fields)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "Updated %s %s (%s)\n", typ, updated.Name, updated.ID)
	return nil
}

// checkLinkWorlds warns when a link assignment targets an element in a
// different world. Without --force the edit stops so the user can confirm.
func checkLinkWorlds(ctx context.Context, client *api.Client, typ, id string, fields map[string]any, force bool) error {
	source, err := client.Get(ctx, typ, id)
	if err != nil {
		return err
	}

	for name, value := range fields {
		desc := element.Lookup(name)
		if !desc.IsLink() {
			continue
		}
		for _, targetID := range element.RefIDs(value) {
			target, err := client.Get(ctx, desc.Target, targetID)
			if err != nil || target == nil {
				continue
			}
			if w := relation.CheckWorlds(source, target); w != nil {
				fmt.Fprintf(os.Stderr, "warning: %s\n", w.Message())
				if !force {
					return fmt.Errorf("target %s is in another world; pass --force to link anyway", targetID)
				}
			}
		}
	}
	return nil
}

// parseFieldValue coerces command-line text by field kind. Multi-link
// fields split on commas; anything unparseable stays a string.
func parseFieldValue(desc element.Descriptor, raw string) any {
	switch desc.Kind {
	case element.KindNumber:
		if n, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil {
			return n
		}
	case element.KindBoolean:
		if b, err := strconv.ParseBool(strings.TrimSpace(raw)); err == nil {
			return b
		}
	case element.KindLinkList:
		if strings.TrimSpace(raw) == "" {
			return []string{}
		}
		parts := strings.Split(raw, ",")
		ids := make([]string, 0, len(parts))
		for _, part := range parts {
			if id := strings.TrimSpace(part); id != "" {
				ids = append(ids, id)
			}
		}
		return ids
	}
	return raw
}
