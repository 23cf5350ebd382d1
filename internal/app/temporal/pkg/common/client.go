package common

import (
	"fmt"

	"go.temporal.io/sdk/client"
	"go.uber.org/zap"

	"watchme-asr/internal/config"
)

// NewTemporalClient dials the Temporal frontend named by settings
func NewTemporalClient(settings config.TemporalSettings, logger *zap.Logger) (client.Client, error) {
	c, err := client.Dial(client.Options{
		HostPort:  settings.HostPort,
		Namespace: settings.Namespace,
		Logger:    NewTemporalLogger(logger),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Temporal client for %s: %w", settings.HostPort, err)
	}
	return c, nil
}
