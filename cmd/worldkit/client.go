package main

import (
	"go.uber.org/zap"

	"worldkit/internal/api"
	"worldkit/internal/config"
)

func loadConfig() (*config.Config, error) {
	return config.Load(config.DefaultPath)
}

func newClient(cfg *config.Config) (*api.Client, error) {
	var opts []api.Option
	if cfg.Debug {
		log, err := zap.NewDevelopment()
		if err != nil {
			return nil, err
		}
		opts = append(opts, api.WithLogger(log))
	}
	return api.New(cfg.APIURL, cfg.Credentials, opts...)
}
