package config

import (
	"fmt"

	"skillmatch/internal/errors"
)

// ValidateTLSConfig checks the server TLS block for a usable combination
// of mode, certificate sources, and protocol settings.
func (c *Config) ValidateTLSConfig() error {
	tls := c.Server.TLS

	switch tls.Mode {
	case "disabled":
		return nil
	case "server":
		if err := validateCertSources(tls); err != nil {
			return err
		}
	case "mutual":
		if err := validateCertSources(tls); err != nil {
			return err
		}
		if err := validateClientCASources(tls); err != nil {
			return err
		}
	default:
		return tlsConfigError(fmt.Sprintf("invalid TLS mode %q (must be 'disabled', 'server', or 'mutual')", tls.Mode))
	}

	switch tls.MinVersion {
	case "", "1.2", "1.3":
	default:
		return tlsConfigError(fmt.Sprintf("invalid TLS minVersion %q (must be '1.2' or '1.3')", tls.MinVersion))
	}

	return nil
}

// validateCertSources requires a server certificate and key, each from
// exactly one source (file path or inline content).
func validateCertSources(tls TLSConfig) error {
	if (tls.CertFile == "" && tls.CertContent == "") || (tls.KeyFile == "" && tls.KeyContent == "") {
		return tlsConfigError("TLS certificate and key are required (provide files or inline content)")
	}
	if tls.CertFile != "" && tls.CertContent != "" {
		return tlsConfigError("certFile and certContent are mutually exclusive")
	}
	if tls.KeyFile != "" && tls.KeyContent != "" {
		return tlsConfigError("keyFile and keyContent are mutually exclusive")
	}
	return nil
}

// validateClientCASources covers the mutual-mode additions: a client CA
// from one source and a recognized client auth policy.
func validateClientCASources(tls TLSConfig) error {
	if tls.CAFile == "" && tls.CAContent == "" {
		return tlsConfigError("mutual TLS requires a CA certificate (provide caFile or caContent)")
	}
	if tls.CAFile != "" && tls.CAContent != "" {
		return tlsConfigError("caFile and caContent are mutually exclusive")
	}

	switch tls.ClientAuthPolicy {
	case "", "require", "request", "verify":
		return nil
	default:
		return tlsConfigError(fmt.Sprintf("invalid clientAuthPolicy %q (must be 'require', 'request', or 'verify')", tls.ClientAuthPolicy))
	}
}

func tlsConfigError(message string) error {
	return errors.NewConfigError(errors.ErrCodeInvalidConfig, message, nil)
}
