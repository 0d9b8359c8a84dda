package main

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"worldkit/internal/config"
	"worldkit/internal/tui"
)

func browseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Browse and edit the world interactively",
		Args:  cobra.NoArgs,
		RunE:  runBrowse,
	}
}

func runBrowse(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	model := tui.New(client, cfg, config.DefaultPath)
	_, err = tea.NewProgram(model, tea.WithAltScreen()).Run()
	return err
}
