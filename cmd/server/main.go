package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/gravitas-games/stowage/internal/config"
	"github.com/gravitas-games/stowage/internal/server"
	"github.com/gravitas-games/stowage/internal/slotlock"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:          "stowage",
		Short:        "Stash and crafting server",
		SilenceUsage: true,
		RunE:         runServe,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to server.yaml (default $CONFIG_PATH or ./configs/server.yaml)")

	root.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Load the configuration and seed a session without starting the server",
		RunE:  runCheck,
	})

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, *logrus.Logger, error) {
	path := configPath
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		path = "./configs/server.yaml"
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}

	log := logrus.New()
	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, nil, err
	}
	log.SetLevel(level)
	if cfg.Log.Format == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	}

	log.WithField("path", path).Info("Configuration loaded")
	return cfg, log, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	srv, err := server.New(cfg, log)
	if err != nil {
		return err
	}

	errChan := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		if err := srv.Start(addr); err != nil {
			errChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errChan:
		log.WithError(err).Error("Server error")
		return err
	case sig := <-sigChan:
		log.WithField("signal", sig).Info("Shutting down")
	}

	if err := srv.Shutdown(); err != nil {
		log.WithError(err).Warn("Error during shutdown")
	}
	log.Info("Server stopped")
	return nil
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	session, err := server.NewSession("check", cfg, slotlock.NewMemoryStore(), log)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%d items, %d recipes, %d containers\n",
		len(session.Registry().Export()), len(cfg.Recipes), session.Catalog().Len())
	return nil
}
