package utils

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"gopkg.in/gomail.v2"

	"estatecrm/config"
	"estatecrm/models"
)

const reminderTemplate = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Task reminder</title>
</head>
<body style="font-family: Arial, sans-serif; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
    <h2 style="color: #2c3e50; border-bottom: 1px solid #eee; padding-bottom: 10px;">Task reminder</h2>
    <p>Hello {{.Name}},</p>
    <p>Your task <strong>{{.Title}}</strong> is due at {{.DueAt}}.</p>
    {{if .Description}}<p>{{.Description}}</p>{{end}}
    <p style="margin-top: 30px; font-size: 12px; color: #7f8c8d;">EstateCRM · {{.Year}}</p>
</body>
</html>`

// Mailer sends task reminder emails over SMTP.
type Mailer struct {
	dialer *gomail.Dialer
	from   string
	tmpl   *template.Template
}

// NewMailer returns nil when SMTP is not configured; callers treat a nil
// mailer as "reminders disabled".
func NewMailer(cfg *config.Config) *Mailer {
	if cfg.SMTPHost == "" {
		return nil
	}
	return &Mailer{
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword),
		from:   cfg.FromEmail,
		tmpl:   template.Must(template.New("reminder").Parse(reminderTemplate)),
	}
}

// SendTaskReminder emails the assignee about a task whose reminder is due.
func (m *Mailer) SendTaskReminder(to, name string, task *models.Task) error {
	data := struct {
		Name        string
		Title       string
		Description string
		DueAt       string
		Year        int
	}{
		Name:  name,
		Title: task.Title,
		DueAt: task.DueAt.Format("Mon, 2 Jan 2006 15:04"),
		Year:  time.Now().Year(),
	}
	if task.Description != nil {
		data.Description = *task.Description
	}

	var body bytes.Buffer
	if err := m.tmpl.Execute(&body, data); err != nil {
		return fmt.Errorf("render reminder email: %w", err)
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", fmt.Sprintf("Reminder: %s", task.Title))
	msg.SetBody("text/html", body.String())

	return m.dialer.DialAndSend(msg)
}
