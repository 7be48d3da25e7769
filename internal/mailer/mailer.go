// Package mailer relays HTML email through an SMTP server.
//
// A transport is built once at startup from the sender credentials and the
// server address, and performs exactly one delivery attempt per SendEmail
// call. Failures never propagate to the caller as errors: they are logged and
// reported through Result.Success.
package mailer

import (
	"context"
	"crypto/tls"
)

// Email is a single outgoing message. The sender is not part of it; the
// transport always sends from its configured address.
type Email struct {
	To      string
	Subject string
	Body    string // HTML
}

// Result is the outcome of one delivery attempt.
type Result struct {
	Success bool
	// MessageID is the Message-ID header of the delivered message. Empty when
	// Success is false.
	MessageID string
}

// Sender delivers email.
type Sender interface {
	SendEmail(ctx context.Context, email Email) Result
}

// Config holds the SMTP connection settings.
type Config struct {
	SenderEmail    string
	SenderPassword string
	Host           string
	Port           int
	// TLSConfig is used for implicit TLS and STARTTLS. Nil means system roots
	// with Host as the server name.
	TLSConfig *tls.Config
}
