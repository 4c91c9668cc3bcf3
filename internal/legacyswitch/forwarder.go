package legacyswitch

import (
	"context"
	"log/slog"
)

// PinForwarder delivers encrypted PIN payloads to the legacy banking switch.
// The payload is opaque hex produced by the credential crypto service; the
// switch owns decryption.
type PinForwarder interface {
	ForwardPin(ctx context.Context, bankCode, payloadHex string) error
}

// LoggerForwarder is a stub implementation that records the hand-off in the
// logger. The payload itself is never logged, only its length.
type LoggerForwarder struct {
	logger *slog.Logger
}

// NewLoggerForwarder constructs a logging forwarder stub.
func NewLoggerForwarder(logger *slog.Logger) *LoggerForwarder {
	return &LoggerForwarder{logger: logger}
}

// ForwardPin records the forwarding event.
func (f *LoggerForwarder) ForwardPin(_ context.Context, bankCode, payloadHex string) error {
	if f == nil || f.logger == nil {
		return nil
	}
	f.logger.Info("pin payload forwarded to switch", "bank_code", bankCode, "payload_len", len(payloadHex))
	return nil
}
