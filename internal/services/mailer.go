package services

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/campuslink/alumninet/internal/config"
	"github.com/campuslink/alumninet/pkg/logger"
)

// Mailer turns decision notices into outbound email. It is the only
// delivery channel; when SMTP is disabled, notices are logged and
// dropped.
type Mailer struct {
	cfg *config.SMTPConfig
}

func NewMailer(cfg *config.SMTPConfig) *Mailer {
	return &Mailer{cfg: cfg}
}

// Deliver sends one notice. The signature matches what the notifier and
// worker expect.
func (m *Mailer) Deliver(ctx context.Context, notice *DecisionNotice) error {
	if !m.cfg.Enabled || m.cfg.Host == "" {
		logger.Debug().
			Str("kind", notice.Kind).
			Uint("member", notice.MemberID).
			Msg("smtp disabled, notice not delivered")
		return nil
	}
	if notice.Email == "" {
		return nil
	}

	subject, body := m.compose(notice)
	return m.send([]string{notice.Email}, subject, body)
}

func (m *Mailer) compose(n *DecisionNotice) (subject, body string) {
	name := n.DisplayName
	if name == "" {
		name = "there"
	}

	switch n.Kind {
	case "member_approved":
		subject = "[AlumniNet] Your membership has been approved"
		body = fmt.Sprintf("Hi %s,\r\n\r\nYour alumni network membership has been approved. You can now sign in and participate.\r\n", name)
	case "member_rejected":
		subject = "[AlumniNet] Your membership application"
		body = fmt.Sprintf("Hi %s,\r\n\r\nYour membership application was not approved.\r\n", name)
		if n.Reason != "" {
			body += fmt.Sprintf("\r\nReason: %s\r\n", n.Reason)
		}
	case "media_approved":
		subject = "[AlumniNet] Your submission is now published"
		body = fmt.Sprintf("Hi %s,\r\n\r\nYour submission %q has been approved and is now visible to the community.\r\n", name, n.Subject)
	case "media_rejected":
		subject = "[AlumniNet] Your submission was not published"
		body = fmt.Sprintf("Hi %s,\r\n\r\nYour submission %q was not approved.\r\n", name, n.Subject)
		if n.Reason != "" {
			body += fmt.Sprintf("\r\nNotes: %s\r\n", n.Reason)
		}
	default:
		subject = "[AlumniNet] Account update"
		body = fmt.Sprintf("Hi %s,\r\n\r\nThere has been an update to your account.\r\n", name)
	}

	body += "\r\n-- The AlumniNet team\r\n"
	return subject, body
}

func (m *Mailer) send(to []string, subject, body string) error {
	from := m.cfg.From
	if from == "" {
		from = m.cfg.Username
	}

	var msg strings.Builder
	msg.WriteString(fmt.Sprintf("From: %s\r\n", from))
	msg.WriteString(fmt.Sprintf("To: %s\r\n", strings.Join(to, ",")))
	msg.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	msg.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)

	var auth smtp.Auth
	if m.cfg.Username != "" && m.cfg.Password != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	if err := smtp.SendMail(addr, auth, from, to, []byte(msg.String())); err != nil {
		logger.Warnf("[Mailer] send failed: %v", err)
		return err
	}

	logger.Infof("[Mailer] notice sent to %v", to)
	return nil
}
