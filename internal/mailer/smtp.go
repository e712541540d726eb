package mailer

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
)

// Default relay, STARTTLS port.
const (
	DefaultSMTPHost = "smtp.gmail.com"
	DefaultSMTPPort = 587
)

// SMTPSender sends each message over its own connection: connect, STARTTLS,
// authenticate with the supplied credentials, transmit, close. No session
// reuse across recipients.
type SMTPSender struct {
	Host string
	Port int
}

func (s *SMTPSender) addr() (host string, hostport string) {
	host = s.Host
	if host == "" {
		host = DefaultSMTPHost
	}
	port := s.Port
	if port <= 0 {
		port = DefaultSMTPPort
	}
	return host, net.JoinHostPort(host, strconv.Itoa(port))
}

func (s *SMTPSender) Send(ctx context.Context, creds Credentials, recipient string, msg Message) error {
	host, hostport := s.addr()

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", hostport)
	if err != nil {
		return fmt.Errorf("dial %s: %w", hostport, err)
	}

	c, err := smtp.NewClient(conn, host)
	if err != nil {
		_ = conn.Close()
		return err
	}
	defer func() {
		_ = c.Close()
	}()

	if ok, _ := c.Extension("STARTTLS"); !ok {
		return fmt.Errorf("relay %s does not offer STARTTLS", hostport)
	}
	if err := c.StartTLS(&tls.Config{ServerName: host}); err != nil {
		return fmt.Errorf("starttls: %w", err)
	}
	if err := c.Auth(smtp.PlainAuth("", creds.Address, creds.Password, host)); err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	if err := c.Mail(creds.Address); err != nil {
		return err
	}
	if err := c.Rcpt(recipient); err != nil {
		return err
	}
	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(buildMessage(creds.Address, recipient, msg)); err != nil {
		_ = w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return c.Quit()
}

func buildMessage(from, to string, msg Message) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(msg.Body)
	b.WriteString("\r\n")
	return []byte(b.String())
}
