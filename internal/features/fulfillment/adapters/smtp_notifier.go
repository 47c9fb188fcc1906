package adapters

import (
	"context"
	"html/template"
	"strings"

	"giftcard-fulfillment/internal/core/config"
	"giftcard-fulfillment/internal/features/fulfillment/domain"
	"giftcard-fulfillment/internal/features/fulfillment/ports"

	"github.com/wneessen/go-mail"
)

// bodyTemplate renders the single per-order delivery email. Pure formatting;
// every issued code appears once, in issuance order.
const bodyTemplate = `<html>
<body>
<p>Thank you for your purchase!</p>
<p>Here {{if eq (len .Codes) 1}}is your gift card code{{else}}are your gift card codes{{end}} for order {{.OrderID}}:</p>
<ul>
{{- range .Codes}}
<li><strong>{{.}}</strong></li>
{{- end}}
</ul>
<p>Amount per code: {{.AmountPerCode}}</p>
{{- if .ExpiredTime}}
<p>Codes expire on {{.ExpiredTime.Format "2006-01-02"}}.</p>
{{- end}}
</body>
</html>
`

// SMTPNotifier implements the Notifier interface over SMTP.
type SMTPNotifier struct {
	// config holds the SMTP connection details.
	config config.MailConfig
	// tmpl is the parsed delivery email template.
	tmpl *template.Template
}

// NewSMTPNotifier creates a new instance of SMTPNotifier.
func NewSMTPNotifier(cfg config.MailConfig) (*SMTPNotifier, error) {
	tmpl, err := template.New("delivery").Parse(bodyTemplate)
	if err != nil {
		return nil, err
	}
	return &SMTPNotifier{config: cfg, tmpl: tmpl}, nil
}

// Send delivers one message carrying every code for the order. Codes are
// never split across multiple messages.
func (n *SMTPNotifier) Send(ctx context.Context, msg domain.Notification) error {
	body, err := n.renderBody(msg)
	if err != nil {
		return &ports.NotificationError{Detail: "failed to render message body", Err: err}
	}

	m := mail.NewMsg()
	if err := m.From(n.config.FromAddress); err != nil {
		return &ports.NotificationError{Detail: "invalid sender address", Err: err}
	}
	if err := m.To(msg.Recipient); err != nil {
		return &ports.NotificationError{Detail: "invalid recipient address", Err: err}
	}
	m.Subject(n.config.Subject)
	m.SetBodyString(mail.TypeTextHTML, body)

	opts := []mail.Option{
		mail.WithPort(n.config.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if n.config.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(n.config.Username),
			mail.WithPassword(n.config.Password),
		)
	}

	client, err := mail.NewClient(n.config.Host, opts...)
	if err != nil {
		return &ports.NotificationError{Detail: "failed to create SMTP client", Err: err}
	}

	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return &ports.NotificationError{Detail: "failed to deliver message", Err: err}
	}

	return nil
}

// renderBody fills the delivery template for a notification.
func (n *SMTPNotifier) renderBody(msg domain.Notification) (string, error) {
	var sb strings.Builder
	if err := n.tmpl.Execute(&sb, msg); err != nil {
		return "", err
	}
	return sb.String(), nil
}
