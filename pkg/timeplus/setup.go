package timeplus

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

// SetupStreams creates every mirrored stream that does not exist yet
func SetupStreams(ctx context.Context, client TimeplusClient, prefix string) error {
	for _, table := range Tables(prefix) {
		exists, err := client.StreamExists(ctx, table.Name)
		if err != nil {
			return fmt.Errorf("failed to check stream %s: %w", table.Name, err)
		}
		if exists {
			logrus.Debugf("Stream %s already exists", table.Name)
			continue
		}

		logrus.Infof("Creating stream %s", table.Name)
		if err := client.CreateStream(ctx, table.Name, table.Columns); err != nil {
			return err
		}
	}
	return nil
}
