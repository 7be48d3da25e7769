package mailer

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/emersion/go-sasl"
	gosmtp "github.com/emersion/go-smtp"
	"github.com/rs/zerolog"

	"github.com/sungwon/mail-relay/internal/logger"
	"github.com/sungwon/mail-relay/internal/metrics"
)

// implicitTLSPort is the SMTPS port. Connections to it are wrapped in TLS
// before the greeting; every other port negotiates STARTTLS when offered.
const implicitTLSPort = 465

// defaultDialTimeout matches the dialer go-smtp uses for its own Dial helpers.
const defaultDialTimeout = 30 * time.Second

// SMTPTransport implements Sender over SMTP with PLAIN authentication.
// It holds no connection between calls and is safe for concurrent use.
type SMTPTransport struct {
	cfg             Config
	log             zerolog.Logger
	implicitTLSPort int
	dialTimeout     time.Duration
	now             func() time.Time
}

// New creates an SMTPTransport for cfg.
func New(cfg Config, log zerolog.Logger) *SMTPTransport {
	return &SMTPTransport{
		cfg:             cfg,
		log:             log.With().Str("component", "mailer").Logger(),
		implicitTLSPort: implicitTLSPort,
		dialTimeout:     defaultDialTimeout,
		now:             time.Now,
	}
}

// SendEmail delivers email from the configured sender. It makes a single
// attempt; any failure is logged and reported as Result{Success: false}.
// Cancellation of ctx does not abort a send that has started.
func (t *SMTPTransport) SendEmail(ctx context.Context, email Email) Result {
	log := t.log
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		log = log.With().Str("correlation_id", id).Logger()
	}

	start := time.Now()
	messageID, err := t.send(context.WithoutCancel(ctx), email)
	metrics.MailSendDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.MailSendTotal.WithLabelValues(metrics.ResultFailure).Inc()
		log.Error().Err(err).
			Str("recipient", email.To).
			Msg("failed to send email")
		return Result{Success: false}
	}

	metrics.MailSendTotal.WithLabelValues(metrics.ResultSuccess).Inc()
	log.Info().
		Str("recipient", email.To).
		Str("message_id", messageID).
		Msg("email sent")
	return Result{Success: true, MessageID: messageID}
}

func (t *SMTPTransport) send(ctx context.Context, email Email) (string, error) {
	messageID := newMessageID(t.cfg.SenderEmail)
	raw, err := buildMessage(t.cfg.SenderEmail, email, messageID, t.now())
	if err != nil {
		return "", err
	}

	c, err := t.dial(ctx)
	if err != nil {
		return "", err
	}
	defer c.Close()

	if err := c.Auth(sasl.NewPlainClient("", t.cfg.SenderEmail, t.cfg.SenderPassword)); err != nil {
		return "", fmt.Errorf("auth: %w", err)
	}

	if err := c.SendMail(t.cfg.SenderEmail, []string{email.To}, bytes.NewReader(raw)); err != nil {
		return "", fmt.Errorf("send mail: %w", err)
	}

	if err := c.Quit(); err != nil {
		// The server already accepted the message.
		t.log.Debug().Err(err).Msg("quit after successful send")
	}

	return messageID, nil
}

// dial connects to the SMTP server, using implicit TLS on the SMTPS port.
// Elsewhere the greeting is probed for STARTTLS; when offered, the probe is
// dropped and a fresh connection is upgraded before any credentials are sent.
func (t *SMTPTransport) dial(ctx context.Context) (*gosmtp.Client, error) {
	addr := net.JoinHostPort(t.cfg.Host, strconv.Itoa(t.cfg.Port))
	dialer := &net.Dialer{Timeout: t.dialTimeout}

	if t.cfg.Port == t.implicitTLSPort {
		tlsDialer := &tls.Dialer{NetDialer: dialer, Config: t.tlsConfig()}
		conn, err := tlsDialer.DialContext(ctx, "tcp", addr)
		if err != nil {
			return nil, fmt.Errorf("dial tls %s: %w", addr, err)
		}
		return gosmtp.NewClient(conn), nil
	}

	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}

	c := gosmtp.NewClient(conn)
	if ok, _ := c.Extension("STARTTLS"); !ok {
		return c, nil
	}
	c.Close()

	conn, err = dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	c, err = gosmtp.NewClientStartTLS(conn, t.tlsConfig())
	if err != nil {
		return nil, fmt.Errorf("starttls: %w", err)
	}
	return c, nil
}

func (t *SMTPTransport) tlsConfig() *tls.Config {
	var cfg *tls.Config
	if t.cfg.TLSConfig != nil {
		cfg = t.cfg.TLSConfig.Clone()
	} else {
		cfg = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	if cfg.ServerName == "" {
		cfg.ServerName = t.cfg.Host
	}
	return cfg
}
