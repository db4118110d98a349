package providers

import (
	"errors"
	"strconv"
	"strings"
)

// Kind is the five-member error taxonomy mandated by §4.2.4: distinct
// types so callers can react (retry, prompt for a key, fail the turn).
type Kind int

const (
	KindGeneric Kind = iota
	KindAuthentication
	KindRateLimit
	KindModel
	KindConnection
)

func (k Kind) String() string {
	switch k {
	case KindAuthentication:
		return "AuthenticationError"
	case KindRateLimit:
		return "RateLimitError"
	case KindModel:
		return "ModelError"
	case KindConnection:
		return "ConnectionError"
	default:
		return "GenericError"
	}
}

// ProviderError is the carrier type for all five classified kinds. It
// always attaches a provider-specific remediation hint so the UI Port
// can render actionable guidance alongside the message.
type ProviderError struct {
	Kind        Kind
	Provider    string
	Status      int
	Message     string
	Remediation string
	Cause       error
}

func (e *ProviderError) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	if e.Provider != "" {
		b.WriteString(" [")
		b.WriteString(e.Provider)
		b.WriteString("]")
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	return b.String()
}

func (e *ProviderError) Unwrap() error { return e.Cause }

// KindString reports the error's classified kind as a label value, for
// callers (metrics) that can't import this package's Kind type
// directly without creating an import cycle.
func (e *ProviderError) KindString() string { return e.Kind.String() }

// remediationFor returns the provider-specific hint for a given kind,
// e.g. where to get an API key or how to start the local daemon.
func remediationFor(provider string, kind Kind) string {
	switch kind {
	case KindAuthentication:
		switch provider {
		case "anthropic":
			return "set ANTHROPIC_API_KEY (https://console.anthropic.com/settings/keys)"
		case "google", "gemini":
			return "set GEMINI_API_KEY or GOOGLE_API_KEY (https://aistudio.google.com/apikey)"
		case "openrouter":
			return "set OPENROUTER_API_KEY (https://openrouter.ai/keys)"
		case "ollama":
			return "local provider does not require a key; check the daemon is reachable"
		default:
			return "set OPENAI_API_KEY (https://platform.openai.com/api-keys)"
		}
	case KindRateLimit:
		return "you have hit the provider's rate limit or quota; wait and retry, or switch providers"
	case KindModel:
		return "the requested model is unknown to this provider; check the model name or run --list-providers"
	case KindConnection:
		if provider == "ollama" {
			return "could not reach the local Ollama daemon; is it running (ollama serve)?"
		}
		return "network or upstream error talking to the provider; check connectivity and retry"
	default:
		return "unexpected provider error; retry, or inspect the cause for detail"
	}
}

// Classify buckets a raw error (or raw HTTP status, when known) into
// one of the five mandatory kinds using the same string-pattern
// technique the source providers use, in priority order so the most
// specific match wins.
func Classify(provider string, status int, err error) *ProviderError {
	if err == nil {
		return nil
	}
	kind := classifyStatus(status)
	if kind == KindGeneric {
		kind = classifyMessage(err.Error())
	}
	return &ProviderError{
		Kind:        kind,
		Provider:    provider,
		Status:      status,
		Message:     err.Error(),
		Remediation: remediationFor(provider, kind),
		Cause:       err,
	}
}

func classifyStatus(status int) Kind {
	switch {
	case status == 401 || status == 403:
		return KindAuthentication
	case status == 429:
		return KindRateLimit
	case status == 404:
		return KindModel
	case status == 502 || status == 503 || status == 504:
		return KindConnection
	default:
		return KindGeneric
	}
}

func classifyMessage(msg string) Kind {
	lower := strings.ToLower(msg)
	switch {
	case containsAny(lower, "api key", "unauthorized", "authentication", "invalid_api_key", "401"):
		return KindAuthentication
	case containsAny(lower, "rate limit", "quota", "429", "too many requests"):
		return KindRateLimit
	case containsAny(lower, "model not found", "not supported", "does not exist", "404", "unknown model"):
		return KindModel
	case containsAny(lower, "timeout", "timed out", "connection refused", "no such host", "503", "eof", "deadline exceeded"):
		return KindConnection
	default:
		return KindGeneric
	}
}

func containsAny(haystack string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}

// StatusFromMessage extracts a leading/embedded HTTP status code from
// an error string when the SDK doesn't expose one structurally
// (several thin vendor clients only return formatted strings).
func StatusFromMessage(msg string) int {
	for _, tok := range strings.Fields(msg) {
		tok = strings.Trim(tok, "():,")
		if len(tok) == 3 {
			if n, err := strconv.Atoi(tok); err == nil && n >= 100 && n < 600 {
				return n
			}
		}
	}
	return 0
}

// As reports whether err is (or wraps) a *ProviderError, mirroring the
// errors.As convenience the source's error-kind helpers provide.
func As(err error) (*ProviderError, bool) {
	var pe *ProviderError
	ok := errors.As(err, &pe)
	return pe, ok
}
