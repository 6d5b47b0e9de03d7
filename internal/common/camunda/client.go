// internal/common/camunda/client.go
package camunda

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"

	"counsel-workers/internal/common/logger"
)

// Client wraps the Zeebe gRPC client with a connect-time retry loop.
type Client struct {
	client zbc.Client
	config *ClientConfig
}

// ClientConfig holds configuration for the Zeebe client.
type ClientConfig struct {
	GatewayAddress         string
	UsePlaintextConnection bool
	ConnectionTimeout      time.Duration
	RetryConfig            *RetryConfig
}

// RetryConfig defines backoff for the initial broker handshake.
type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

var DefaultRetryConfig = &RetryConfig{
	MaxRetries: 10,
	BaseDelay:  1 * time.Second,
	MaxDelay:   15 * time.Second,
}

// Connect creates the Zeebe client and waits until the topology request
// succeeds. Transient failures are retried with exponential backoff.
func Connect(ctx context.Context, config *ClientConfig, log logger.Logger) (*Client, error) {
	if config.RetryConfig == nil {
		config.RetryConfig = DefaultRetryConfig
	}
	if config.ConnectionTimeout == 0 {
		config.ConnectionTimeout = 10 * time.Second
	}

	zeebeClient, err := zbc.NewClient(&zbc.ClientConfig{
		GatewayAddress:         config.GatewayAddress,
		UsePlaintextConnection: config.UsePlaintextConnection,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Zeebe client: %w", err)
	}
	c := &Client{client: zeebeClient, config: config}

	retry := config.RetryConfig
	for attempt := 0; ; attempt++ {
		err = c.HealthCheck(ctx)
		if err == nil {
			return c, nil
		}
		if !IsRetryable(err) || attempt >= retry.MaxRetries {
			_ = zeebeClient.Close()
			return nil, fmt.Errorf("failed to connect to Zeebe broker at %s after %d attempts: %w",
				config.GatewayAddress, attempt+1, err)
		}

		delay := Backoff(retry, attempt)
		log.Warn("zeebe not ready, retrying", map[string]interface{}{
			"attempt":     attempt + 1,
			"maxRetries":  retry.MaxRetries,
			"nextRetryIn": delay.String(),
			"error":       err,
		})
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			_ = zeebeClient.Close()
			return nil, ctx.Err()
		}
	}
}

// Backoff doubles BaseDelay per attempt, capped at MaxDelay.
func Backoff(cfg *RetryConfig, attempt int) time.Duration {
	delay := cfg.BaseDelay * time.Duration(1<<attempt)
	if delay > cfg.MaxDelay || delay <= 0 {
		delay = cfg.MaxDelay
	}
	return delay
}

// IsRetryable reports whether a broker error looks transient.
func IsRetryable(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, phrase := range []string{
		"connection refused",
		"connection reset",
		"timeout",
		"deadline exceeded",
		"unavailable",
		"unreachable",
		"broken pipe",
	} {
		if strings.Contains(msg, phrase) {
			return true
		}
	}
	return false
}

// Zeebe returns the raw client for opening job workers.
func (c *Client) Zeebe() zbc.Client {
	return c.client
}

func (c *Client) Close() error {
	return c.client.Close()
}

// HealthCheck performs a topology request against the gateway.
func (c *Client) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.config.ConnectionTimeout)
	defer cancel()

	if _, err := c.client.NewTopologyCommand().Send(ctx); err != nil {
		return fmt.Errorf("zeebe health check failed: %w", err)
	}
	return nil
}
