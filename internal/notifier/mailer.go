package notifier

import (
	"context"
	"crypto/tls"
	"fmt"
	"html"
	"net"
	"net/smtp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/uptimer-dev/uptimer/internal/domain/notification"
	"github.com/uptimer-dev/uptimer/internal/obs/retry"
)

type SMTPConfig struct {
	Addr       string        `mapstructure:"addr"`
	User       string        `mapstructure:"user"`
	Password   string        `mapstructure:"password"`
	From       string        `mapstructure:"from"`
	UseTLS     bool          `mapstructure:"use_tls"`
	Timeout    time.Duration `mapstructure:"timeout"`
	SubjPrefix string        `mapstructure:"subject_prefix"`
}

var _ notification.EmailSender = (*Mailer)(nil)

// Mailer delivers failure/recovery alerts over SMTP, one message per
// recipient, each retried under the email policy.
type Mailer struct {
	addr       string
	auth       smtp.Auth
	useTLS     bool
	timeout    time.Duration
	from       string
	subjPrefix string

	log *zap.Logger
}

func New(cfg SMTPConfig) *Mailer {
	var auth smtp.Auth
	if cfg.User != "" || cfg.Password != "" {
		auth = smtp.PlainAuth("", cfg.User, cfg.Password, host(cfg.Addr))
	}
	return &Mailer{
		addr:       cfg.Addr,
		auth:       auth,
		useTLS:     cfg.UseTLS,
		timeout:    cfg.Timeout,
		from:       cfg.From,
		subjPrefix: cfg.SubjPrefix,
		log:        zap.L().With(zap.String("component", "notifier.mailer")),
	}
}

func (m *Mailer) WithLogger(l *zap.Logger) *Mailer {
	if l == nil {
		return m
	}
	cp := *m
	cp.log = l.With(zap.String("component", "notifier.mailer"))
	return &cp
}

// Send composes the alert for kind and delivers it to every recipient.
// Returns the last delivery error, which callers treat as log-only.
func (m *Mailer) Send(ctx context.Context, kind notification.Kind, to []string, locals notification.Locals) error {
	subject, body := compose(kind, locals)

	var lastErr error
	for _, rcpt := range to {
		rcpt := rcpt
		err := retry.Do(ctx, func() error {
			return m.deliver(rcpt, subject, body)
		}, retry.DefaultEmailPolicy(m.log))
		if err != nil {
			lastErr = err
		}
	}
	return lastErr
}

func compose(kind notification.Kind, locals notification.Locals) (subject, body string) {
	switch kind {
	case notification.KindFailure:
		subject = fmt.Sprintf("%s is down", locals.AppName)
		body = emailBody(locals,
			fmt.Sprintf("Your monitor %s failed its health check and is currently down.", locals.AppName))
	case notification.KindRecovery:
		subject = fmt.Sprintf("%s is back up", locals.AppName)
		body = emailBody(locals,
			fmt.Sprintf("Your monitor %s recovered and is passing its health check again.", locals.AppName))
	default:
		subject = fmt.Sprintf("%s status update", locals.AppName)
		body = emailBody(locals, fmt.Sprintf("Your monitor %s changed state.", locals.AppName))
	}
	return subject, body
}

func emailBody(locals notification.Locals, line string) string {
	var b strings.Builder
	if locals.AppIcon != "" {
		fmt.Fprintf(&b, "<p><img src=%q alt=%q height=\"32\"/></p>", locals.AppIcon, locals.AppName)
	}
	fmt.Fprintf(&b, "<p>Hello!</p><p>%s</p>", html.EscapeString(line))
	fmt.Fprintf(&b, "<p><a href=%q>Open the dashboard</a></p>", locals.AppLink)
	return b.String()
}

func (m *Mailer) deliver(to, subject, body string) error {
	subj := strings.TrimSpace(m.subjPrefix + " " + subject)
	msg := []byte(
		"From: " + m.from + "\r\n" +
			"To: " + to + "\r\n" +
			"Subject: " + subj + "\r\n" +
			"Content-Type: text/html; charset=utf-8\r\n" +
			"\r\n" + body + "\r\n")

	start := time.Now()
	log := m.log.With(
		zap.String("smtp_addr", m.addr),
		zap.Bool("tls", m.useTLS),
		zap.String("to", to),
		zap.String("subject", subj),
	)

	if m.useTLS {
		return m.deliverTLS(to, msg, log, start)
	}

	if err := smtp.SendMail(m.addr, m.auth, m.from, []string{to}, msg); err != nil {
		log.Error("sendmail failed", zap.Error(err))
		return err
	}
	log.Info("email sent", zap.Duration("elapsed", time.Since(start)))
	return nil
}

func (m *Mailer) deliverTLS(to string, msg []byte, log *zap.Logger, start time.Time) error {
	dialer := net.Dialer{Timeout: m.timeout}
	conn, err := tls.DialWithDialer(&dialer, "tcp", m.addr, &tls.Config{ServerName: host(m.addr)})
	if err != nil {
		log.Error("tls dial failed", zap.Error(err))
		return err
	}
	c, err := smtp.NewClient(conn, host(m.addr))
	if err != nil {
		log.Error("smtp client failed", zap.Error(err))
		return err
	}
	defer func() { _ = c.Close() }()

	if m.auth != nil {
		if ok, _ := c.Extension("AUTH"); ok {
			if err := c.Auth(m.auth); err != nil {
				log.Error("smtp auth failed", zap.Error(err))
				return err
			}
		}
	}
	if err := c.Mail(m.from); err != nil {
		return err
	}
	if err := c.Rcpt(to); err != nil {
		return err
	}
	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err = w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	log.Info("email sent", zap.Duration("elapsed", time.Since(start)))
	return nil
}

func host(addr string) string {
	if i := strings.Index(addr, ":"); i >= 0 {
		return addr[:i]
	}
	return addr
}
