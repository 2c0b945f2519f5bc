package email

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"

	"video2doc/internal/models"
	"video2doc/shared/config"
)

type Sender struct {
	config *config.EmailConfig
}

func NewSender(cfg *config.EmailConfig) *Sender {
	return &Sender{
		config: cfg,
	}
}

const reportTemplate = `<html>
<body style="font-family: sans-serif;">
<h2>Video documents generated - {{.Date.Format "Jan 2, 2006 15:04"}}</h2>
{{if .Documents}}
<table border="0" cellpadding="6">
<tr><th align="left">Video</th><th align="left">Archive</th><th align="left">Screenshots</th></tr>
{{range .Documents}}
<tr><td>{{.Video}}</td><td>{{.Archive}}</td><td>{{.Images}}</td></tr>
{{end}}
</table>
{{else}}
<p>No new videos were processed.</p>
{{end}}
{{if gt .Failed 0}}
<p><b>{{.Failed}} video(s) failed.</b> See the service log for details.</p>
{{end}}
</body>
</html>`

// SendRunReport emails a summary of a completed watch-mode scan. A report
// with no processed documents and no failures is silently skipped.
func (s *Sender) SendRunReport(report *models.RunReport) error {
	if report == nil {
		return fmt.Errorf("report cannot be nil")
	}
	if len(report.Documents) == 0 && report.Failed == 0 {
		return nil
	}

	subject := fmt.Sprintf("video2doc: %d document(s) generated (%s)",
		len(report.Documents), report.Date.Format("Jan 2, 2006"))

	body, err := s.generateReportBody(report)
	if err != nil {
		return fmt.Errorf("failed to generate email body: %w", err)
	}

	return s.SendHTML(subject, body)
}

// SendHTML sends an email with custom HTML content
func (s *Sender) SendHTML(subject, htmlBody string) error {
	return s.sendViaSMTP(subject, htmlBody)
}

func (s *Sender) sendViaSMTP(subject, body string) error {
	auth := smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.SMTPServer)

	to := []string{s.config.ToEmail}
	msg := []byte(fmt.Sprintf(`To: %s
From: %s
Subject: %s
MIME-Version: 1.0
Content-Type: text/html; charset=UTF-8

%s`, s.config.ToEmail, s.config.FromEmail, subject, body))

	addr := fmt.Sprintf("%s:%d", s.config.SMTPServer, s.config.SMTPPort)
	return smtp.SendMail(addr, auth, s.config.FromEmail, to, msg)
}

func (s *Sender) generateReportBody(report *models.RunReport) (string, error) {
	tmpl, err := template.New("report").Parse(reportTemplate)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, report); err != nil {
		return "", err
	}

	return buf.String(), nil
}
