// Package address decides whether a recipient address is platform-internal
// or belongs to the public internet. The distinction drives delivery routing:
// internal addresses are satisfied by the message store alone, external ones
// go through the SMTP transport.
package address

import "strings"

// Kind is the classification result.
type Kind string

const (
	Internal Kind = "internal"
	External Kind = "external"
)

// Classifier matches addresses against the platform's internal mail domain.
type Classifier struct {
	domain string
}

// NewClassifier creates a Classifier for the given internal domain
// (e.g. "hirewire.jobs").
func NewClassifier(domain string) *Classifier {
	return &Classifier{domain: strings.ToLower(strings.TrimSpace(domain))}
}

// Classify returns Internal when the address's domain part matches the
// platform domain, External otherwise. Malformed input classifies External.
func (c *Classifier) Classify(addr string) Kind {
	addr = strings.TrimSpace(addr)

	at := strings.LastIndex(addr, "@")
	if at < 1 || at == len(addr)-1 {
		return External
	}

	if strings.EqualFold(addr[at+1:], c.domain) {
		return Internal
	}
	return External
}

// IsInternal is a convenience wrapper around Classify.
func (c *Classifier) IsInternal(addr string) bool {
	return c.Classify(addr) == Internal
}
