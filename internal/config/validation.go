package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ValidateTimeout validates timeout duration
func ValidateTimeout(timeout time.Duration, name string) error {
	if timeout <= 0 {
		return fmt.Errorf("%s timeout must be positive", name)
	}
	if timeout > 30*time.Minute {
		return fmt.Errorf("%s timeout too large (max 30 minutes)", name)
	}
	return nil
}

// ValidateConcurrency validates concurrency setting
func ValidateConcurrency(concurrency int, name string) error {
	if concurrency <= 0 {
		return fmt.Errorf("%s concurrency must be positive", name)
	}
	if concurrency > 100 {
		return fmt.Errorf("%s concurrency too high (max 100)", name)
	}
	return nil
}

// ValidateAttempts validates a bounded attempt count, first try included
func ValidateAttempts(attempts int, name string) error {
	if attempts <= 0 {
		return fmt.Errorf("%s attempts must be positive", name)
	}
	if attempts > 10 {
		return fmt.Errorf("%s attempts too high (max 10)", name)
	}
	return nil
}

// ValidateRetries validates retry count
func ValidateRetries(retries int, name string) error {
	if retries < 0 {
		return fmt.Errorf("%s retries cannot be negative", name)
	}
	if retries > 10 {
		return fmt.Errorf("%s retries too high (max 10)", name)
	}
	return nil
}

// ValidateRetryDelay validates retry delay
func ValidateRetryDelay(delayMs int, name string) error {
	if delayMs < 0 {
		return fmt.Errorf("%s retry delay cannot be negative", name)
	}
	if delayMs > 60000 {
		return fmt.Errorf("%s retry delay too high (max 60 seconds)", name)
	}
	return nil
}

// ValidateURL validates URL format
func ValidateURL(url string, name string) error {
	if url == "" {
		return fmt.Errorf("%s URL is required", name)
	}
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return fmt.Errorf("%s URL must start with http:// or https://", name)
	}
	return nil
}

// ValidatePort validates port number
func ValidatePort(port string, name string) error {
	if port == "" {
		return fmt.Errorf("%s port is required", name)
	}
	n, err := strconv.Atoi(port)
	if err != nil || n <= 0 || n > 65535 {
		return fmt.Errorf("%s port invalid", name)
	}
	return nil
}

// ValidateClock validates an HH:MM wall-clock time
func ValidateClock(value string, name string) error {
	if _, err := time.Parse("15:04", value); err != nil {
		return fmt.Errorf("%s must be HH:MM, got %q", name, value)
	}
	return nil
}

// ValidateProviderConfig validates common provider configuration
func ValidateProviderConfig(timeout time.Duration, retries int, retryDelayMs int, providerName string) error {
	if err := ValidateTimeout(timeout, providerName); err != nil {
		return err
	}
	if err := ValidateRetries(retries, providerName); err != nil {
		return err
	}
	return ValidateRetryDelay(retryDelayMs, providerName)
}
