// Package logging builds the gateway's structured logger on log/slog.
//
// # Usage
//
//	logger, err := logging.New(logging.FromConfig(cfg.Telemetry.Logging))
//	if err != nil {
//	    return err
//	}
//	slog.SetDefault(logger)
//
//	ctx = logging.WithRequestID(ctx, "req-123")
//	logger.InfoContext(ctx, "request processed") // includes request_id
//
// # PII Redaction
//
// When RedactPII is set, a ReplaceAttr hook masks values before they are
// written:
//
//   - Google API keys: AIzaSy... → AIza***
//   - Bearer tokens: Bearer abc → Bearer ***
//   - key=value credentials in URLs: key=abc → key=***
//   - Emails and IPv4/IPv6 addresses
//
// Attributes whose key names a credential (api_key, token, secret, password,
// authorization) are replaced with "***" regardless of their value.
package logging
