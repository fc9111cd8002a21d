package components

import (
	"crypto/tls"
	"fmt"
	"strings"
	"time"

	"github.com/rakunlabs/flow"
	"github.com/rakunlabs/flow/variant"
	"github.com/wneessen/go-mail"
)

// Output port indices for Email, mirroring HTTPRequest's selection scheme.
const (
	EmailError flow.PortID = iota
	EmailSuccess
	EmailAlways
)

// SMTPConfig holds the server settings an Email component dials with, the
// same fields as the teacher's NodeConfig-driven "email" config type.
type SMTPConfig struct {
	Host               string
	Port               int
	Username           string
	Password           string
	From               string
	TLS                bool
	NoTLS              bool
	InsecureSkipVerify bool
}

// Email sends an SMTP email for each received package, templating the
// subject/body against the package data.
type Email struct {
	In flow.PortID

	SMTP SMTPConfig

	ToTmpl      string
	CcTmpl      string
	BccTmpl     string
	SubjectTmpl string
	BodyTmpl    string
	ContentType string // "text/plain" (default) or "text/html"
}

func (c *Email) Kind() flow.ComponentKind { return flow.Lazy }
func (c *Email) Inputs() *flow.Ports      { return flow.NewPorts([]flow.Port{{ID: c.In}}) }
func (c *Email) Outputs() *flow.Ports {
	return flow.NewPorts([]flow.Port{{ID: EmailError}, {ID: EmailSuccess}, {ID: EmailAlways}})
}

func (c *Email) Run(ctx *flow.Context) (flow.Signal, error) {
	for _, pkg := range ctx.ReceiveAll(c.In) {
		if err := c.fire(ctx, pkg); err != nil {
			return flow.Continue, fmt.Errorf("components: email: %w", err)
		}
	}
	return flow.Continue, nil
}

func (c *Email) fire(ctx *flow.Context, pkg flow.Package) error {
	data := toPlain(pkg)

	to, err := renderTemplate(c.ToTmpl, data)
	if err != nil {
		return fmt.Errorf("to template: %w", err)
	}
	subject, err := renderTemplate(c.SubjectTmpl, data)
	if err != nil {
		return fmt.Errorf("subject template: %w", err)
	}
	body, err := renderTemplate(c.BodyTmpl, data)
	if err != nil {
		return fmt.Errorf("body template: %w", err)
	}

	contentType := c.ContentType
	if contentType == "" {
		contentType = "text/plain"
	}

	from := c.SMTP.From
	if from == "" {
		return fmt.Errorf("no 'from' address configured")
	}

	m := mail.NewMsg()
	if err := m.From(from); err != nil {
		return fmt.Errorf("set from: %w", err)
	}
	if err := m.To(splitAddresses(to)...); err != nil {
		return fmt.Errorf("set to: %w", err)
	}
	m.Subject(subject)
	m.SetBodyString(mail.ContentType(contentType), body)

	port := c.SMTP.Port
	if port == 0 {
		port = 587
	}

	opts := []mail.Option{
		mail.WithPort(port),
		mail.WithTimeout(30 * time.Second),
	}
	if c.SMTP.Username != "" || c.SMTP.Password != "" {
		opts = append(opts, mail.WithSMTPAuth(mail.SMTPAuthPlain), mail.WithUsername(c.SMTP.Username), mail.WithPassword(c.SMTP.Password))
	}
	if c.SMTP.NoTLS {
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	} else {
		opts = append(opts, mail.WithTLSConfig(&tls.Config{
			ServerName:         c.SMTP.Host,
			InsecureSkipVerify: c.SMTP.InsecureSkipVerify,
		}))
		if c.SMTP.TLS {
			opts = append(opts, mail.WithSSL(), mail.WithTLSPolicy(mail.TLSMandatory))
		} else {
			opts = append(opts, mail.WithTLSPolicy(mail.TLSOpportunistic))
		}
	}

	client, err := mail.NewClient(c.SMTP.Host, opts...)
	if err != nil {
		return fmt.Errorf("create client: %w", err)
	}

	sendErr := client.DialAndSend(m)

	status := "sent"
	if sendErr != nil {
		status = "failed"
	}
	out, err := variant.FromAny(map[string]any{"status": status})
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}

	ctx.Send(EmailAlways, out)
	if sendErr != nil {
		ctx.Send(EmailError, out)
	} else {
		ctx.Send(EmailSuccess, out)
	}
	return nil
}

func splitAddresses(s string) []string {
	if s == "" {
		return nil
	}
	s = strings.ReplaceAll(s, ";", ",")
	parts := strings.Split(s, ",")
	addrs := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			addrs = append(addrs, p)
		}
	}
	return addrs
}
