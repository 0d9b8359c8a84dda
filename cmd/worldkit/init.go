package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"worldkit/internal/config"
)

func initCmd() *cobra.Command {
	var key string
	var pin string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Scaffold a worldkit config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(key, pin)
		},
	}
	cmd.Flags().StringVar(&key, "key", "", "World API key (10 digits)")
	cmd.Flags().StringVar(&pin, "pin", "", "World API PIN (4+ digits)")
	return cmd
}

func runInit(key, pin string) error {
	if _, err := os.Stat(config.DefaultPath); err == nil {
		return fmt.Errorf("%s already exists", config.DefaultPath)
	}

	cfg := &config.Config{
		APIURL: config.DefaultAPIURL,
		Credentials: config.Credentials{
			Key: key,
			Pin: pin,
		},
	}
	if key != "" || pin != "" {
		if err := config.ValidateCredentials(cfg.Credentials); err != nil {
			return err
		}
	}
	if err := config.Save(config.DefaultPath, cfg); err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "Wrote %s\n", config.DefaultPath)
	return nil
}
