// Package detect supplies built-in entity detectors: a regex detector
// for the mechanically recognizable kinds, a name-parsing wrapper that
// splits whole-name spans into components, and a caching decorator
// that memoizes detection by content hash.
package detect

import (
	"regexp"

	"piigate/internal/core"
)

// Pattern defines one regex detection rule.
type Pattern struct {
	Kind       core.Kind
	Confidence float64
	Regexp     *regexp.Regexp
}

// Config toggles individual built-in patterns.
type Config struct {
	Email      bool
	Phone      bool
	SSN        bool
	CreditCard bool
	IPAddress  bool
	URL        bool
}

// DefaultConfig enables every built-in pattern.
func DefaultConfig() Config {
	return Config{Email: true, Phone: true, SSN: true, CreditCard: true, IPAddress: true, URL: true}
}

// defaultPatterns returns the built-in detection rules. Confidence
// reflects how unambiguous each shape is: an email address is nearly
// self-proving, a 9-digit run could be many things.
func defaultPatterns() []Pattern {
	return []Pattern{
		// Email: standard email format
		{
			Kind:       core.KindEmail,
			Confidence: 0.95,
			Regexp:     regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`),
		},
		// Phone: US formats with optional country code
		// Matches: (123) 456-7890, 123-456-7890, 123.456.7890, +1 123 456 7890, etc.
		{
			Kind:       core.KindPhone,
			Confidence: 0.7,
			Regexp:     regexp.MustCompile(`(?:\+1[\s.-]?)?\(?\d{3}\)?[\s.\-]?\d{3}[\s.\-]?\d{4}`),
		},
		// SSN: US Social Security Number
		// Matches: 123-45-6789, 123 45 6789, 123456789
		{
			Kind:       core.KindSSN,
			Confidence: 0.65,
			Regexp:     regexp.MustCompile(`\b\d{3}[\s\-]?\d{2}[\s\-]?\d{4}\b`),
		},
		// Credit Card: 16-digit card numbers with optional separators
		// Matches: 1234567890123456, 1234-5678-9012-3456, 1234 5678 9012 3456
		{
			Kind:       core.KindCreditCard,
			Confidence: 0.8,
			Regexp:     regexp.MustCompile(`\b\d{4}[\s\-]?\d{4}[\s\-]?\d{4}[\s\-]?\d{4}\b`),
		},
		// IP Address: IPv4 format
		// Matches: 192.168.1.1, 10.0.0.1, etc.
		{
			Kind:       core.KindIPAddress,
			Confidence: 0.9,
			Regexp:     regexp.MustCompile(`\b(?:(?:25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)\.){3}(?:25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)\b`),
		},
		// URL: http/https links
		{
			Kind:       core.KindURL,
			Confidence: 0.85,
			Regexp:     regexp.MustCompile(`https?://[^\s<>"']+`),
		},
	}
}

// enabledPatterns filters the built-in rules by configuration.
func enabledPatterns(cfg Config) []Pattern {
	var enabled []Pattern
	for _, p := range defaultPatterns() {
		switch p.Kind {
		case core.KindEmail:
			if cfg.Email {
				enabled = append(enabled, p)
			}
		case core.KindPhone:
			if cfg.Phone {
				enabled = append(enabled, p)
			}
		case core.KindSSN:
			if cfg.SSN {
				enabled = append(enabled, p)
			}
		case core.KindCreditCard:
			if cfg.CreditCard {
				enabled = append(enabled, p)
			}
		case core.KindIPAddress:
			if cfg.IPAddress {
				enabled = append(enabled, p)
			}
		case core.KindURL:
			if cfg.URL {
				enabled = append(enabled, p)
			}
		}
	}
	return enabled
}
