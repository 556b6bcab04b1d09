package main

import (
	"context"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/aegisvault/aegis-monitor/pkg/config"
	"github.com/aegisvault/aegis-monitor/pkg/logging"
	"github.com/aegisvault/aegis-monitor/pkg/timeplus"
)

func main() {
	fs := pflag.NewFlagSet("setup", pflag.ExitOnError)
	config.RegisterFlags(fs)
	fs.Parse(os.Args[1:])
	configPath, _ := fs.GetString("config")

	cfg, err := config.LoadConfig(configPath, fs)
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}
	logging.Configure(logrus.StandardLogger(), cfg.Logging)
	logrus.Infof("Setting up mirror streams with prefix %s", cfg.Timeplus.StreamPrefix)

	client, err := timeplus.NewClient(&cfg.Timeplus)
	if err != nil {
		logrus.Fatalf("Failed to connect to Timeplus: %v", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := timeplus.SetupStreams(ctx, client, cfg.Timeplus.StreamPrefix); err != nil {
		logrus.Fatalf("Failed to set up streams: %v", err)
	}

	for _, table := range timeplus.Tables(cfg.Timeplus.StreamPrefix) {
		exists, err := client.StreamExists(ctx, table.Name)
		if err != nil {
			logrus.Warnf("Failed to verify stream %s: %v", table.Name, err)
			continue
		}
		logrus.WithFields(logrus.Fields{"stream": table.Name, "columns": len(table.Columns), "exists": exists}).Info("Stream checked")
	}
	logrus.Info("Setup completed")
}
