// Package notification implements the email notification sink: an SMTP mailer
// with the marketplace templates, and an asynchronous dispatcher that keeps
// delivery off the registration write path.
package notification

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/rs/zerolog"

	"github.com/mejarc/agent-onboarding/internal/core/domain"
)

// SMTPConfig carries the mail server settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Mailer sends the marketplace notification emails over SMTP.
type Mailer struct {
	cfg SMTPConfig
	log zerolog.Logger
	// send is swappable for tests; defaults to smtp.SendMail.
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewMailer(cfg SMTPConfig, log zerolog.Logger) *Mailer {
	return &Mailer{cfg: cfg, log: log, send: smtp.SendMail}
}

func (m *Mailer) SendKycUploadedNotification(_ context.Context, adminUser *domain.User, agent *domain.Agent) error {
	subject := fmt.Sprintf("New KYC uploaded for agent %s", agent.ID)
	owner := agent.BusinessName
	if owner == "" {
		owner = agent.UserID
	}
	body := buildTemplate(templateData{
		Title:      "New KYC Uploaded",
		Subtitle:   fmt.Sprintf("Agent %s uploaded KYC documents.", owner),
		User:       adminUser,
		FooterNote: "Review the uploaded documents and approve or reject the agent account.",
	})
	return m.deliver(adminUser.Email, "KYC Notifications", subject, body)
}

func (m *Mailer) SendAgentRegistrationSubmittedNotification(_ context.Context, agentUser *domain.User, _ *domain.Agent) error {
	body := buildTemplate(templateData{
		Title:      "Registration Submitted",
		Subtitle:   "Your application is being reviewed",
		User:       agentUser,
		FooterNote: "Your application is under review by our team.",
	})
	return m.deliver(agentUser.Email, "Registration Team", "Agent Registration Submitted for Review", body)
}

func (m *Mailer) SendAgentApprovalNotification(_ context.Context, agentUser *domain.User, agent *domain.Agent, approved bool) error {
	status := "approved"
	followUp := "<p>You can now access agent features in your dashboard.</p>"
	if !approved {
		status = "rejected"
		followUp = "<p>Please review the feedback and re-submit the required documents.</p>"
	}

	name := agent.BusinessName
	if name == "" {
		name = agentUser.Email
	}
	body := fmt.Sprintf(`<div style="font-family: Arial, sans-serif; max-width:700px; margin:0 auto; padding:20px;">
  <h2>Update on your application</h2>
  <p>Hi %s,</p>
  <p>Your agent application for <b>%s</b> has been <b>%s</b>.</p>
  %s
  <p>Best regards,<br/>Support Team</p>
</div>`, agentUser.FirstName, name, status, followUp)

	subject := fmt.Sprintf("Your agent account has been %s", status)
	return m.deliver(agentUser.Email, "Support Team", subject, body)
}

func (m *Mailer) SendAgentRejectionNotification(_ context.Context, agentUser *domain.User, _ *domain.Agent, reason string) error {
	body := fmt.Sprintf(`<div style="font-family: Arial, sans-serif; max-width:700px; margin:0 auto; padding:25px;">
  <h1>Application Review</h1>
  <p>We need additional information before your registration can proceed.</p>
  <h3>Reason(s) for review</h3>
  <blockquote>%s</blockquote>
  <p>Best regards,<br/><b>MEJARC Registration Team</b></p>
</div>`, reason)

	return m.deliver(agentUser.Email, "Registration Team", "Agent Registration Requires Additional Information", body)
}

func (m *Mailer) SendLoginVerificationEmail(_ context.Context, email, firstName, code string) error {
	body := fmt.Sprintf(`<div style="font-family: Arial, sans-serif; max-width:700px; margin:0 auto; padding:25px;">
  <h2>Login Verification</h2>
  <p>Hi %s,</p>
  <p>Your one-time login code is:</p>
  <h1 style="letter-spacing:4px;">%s</h1>
  <p>The code expires in 15 minutes.</p>
</div>`, firstName, code)

	return m.deliver(email, "Security Team", "Your login verification code", body)
}

func (m *Mailer) deliver(to, fromName, subject, htmlBody string) error {
	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %q <%s>\r\n", fromName, m.cfg.From)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(htmlBody)

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	if err := m.send(addr, auth, m.cfg.From, []string{to}, []byte(msg.String())); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	m.log.Debug().Str("to", to).Str("subject", subject).Msg("mail sent")
	return nil
}

type templateData struct {
	Title      string
	Subtitle   string
	User       *domain.User
	FooterNote string
}

func buildTemplate(d templateData) string {
	return fmt.Sprintf(`<div style="font-family: Arial, sans-serif; max-width:700px; margin:0 auto; padding:25px;">
  <h1>%s</h1>
  <p>%s</p>
  <h2>Personal Details</h2>
  <p><b>Full Name:</b> %s %s</p>
  <p><b>Email:</b> %s</p>
  <p>%s</p>
  <p>Best regards,<br/><b>Registration Team</b></p>
</div>`, d.Title, d.Subtitle, d.User.FirstName, d.User.LastName, d.User.Email, d.FooterNote)
}
