package config

import (
	"fmt"
	"strings"
)

type StripeConfig struct {
	Key        string `koanf:"key"`
	Currency   string `koanf:"currency"`
	SuccessURL string `koanf:"successurl"`
	CancelURL  string `koanf:"cancelurl"`
}

// String returns a string representation of the Stripe configuration with the key masked.
func (c *StripeConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Stripe ---\n")
	b.WriteString(fmt.Sprintf("  key: %s\n", maskKey(c.Key)))
	b.WriteString(fmt.Sprintf("  currency: %s\n", c.Currency))
	b.WriteString(fmt.Sprintf("  successURL: %s\n", c.SuccessURL))
	b.WriteString(fmt.Sprintf("  cancelURL: %s\n", c.CancelURL))
	return b.String()
}

func (c *StripeConfig) Validate() error {
	if c.Key == "" {
		return fmt.Errorf("stripe API key is not configured")
	}
	if c.Currency == "" {
		return fmt.Errorf("stripe currency is not configured")
	}
	if c.SuccessURL == "" {
		return fmt.Errorf("stripe success URL is not configured")
	}
	if c.CancelURL == "" {
		return fmt.Errorf("stripe cancel URL is not configured")
	}
	return nil
}

func maskKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:8] + "****"
}
