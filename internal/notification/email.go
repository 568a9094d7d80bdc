package notification

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"
	"time"

	"github.com/farmwatch/blight-server/internal/alerting"
	"github.com/farmwatch/blight-server/internal/database"
	"github.com/farmwatch/blight-server/pkg/config"
)

// EmailNotifier delivers alerts by email. Delivery is best-effort: every
// failure is returned to the caller to log, never to halt the pipeline.
type EmailNotifier struct {
	config *config.SMTPConfig
}

// NewEmailNotifier creates a new email notifier
func NewEmailNotifier(cfg *config.SMTPConfig) *EmailNotifier {
	return &EmailNotifier{config: cfg}
}

var alertTemplate = template.Must(template.New("alert").Parse(`
{{.Title}}
{{.Underline}}

{{.Body}}

Priority: {{.Priority}}
Alert type: {{.Type}}
{{if .CRI}}Current risk index: {{.CRI}}{{end}}

---
FarmWatch Blight Monitoring
`))

type alertTemplateData struct {
	Title     string
	Underline string
	Body      string
	Priority  string
	Type      string
	CRI       string
}

// SendAlert emails one alert to the farmer, honoring their notification
// settings. A disabled alert type or a missing email address is a silent
// skip, not an error.
func (e *EmailNotifier) SendAlert(settings database.FarmerSettings, alert alerting.Alert) error {
	if !enabled(settings, alert.Type) {
		fmt.Printf("Farmer %s has %s alerts disabled, skipping\n", alert.FarmerID, alert.Type)
		return nil
	}
	if settings.Email == "" {
		fmt.Printf("Farmer %s has no email on file, skipping alert\n", alert.FarmerID)
		return nil
	}

	underline := make([]byte, len(alert.Title))
	for i := range underline {
		underline[i] = '='
	}

	var buf bytes.Buffer
	err := alertTemplate.Execute(&buf, alertTemplateData{
		Title:     alert.Title,
		Underline: string(underline),
		Body:      alert.Body,
		Priority:  alert.Priority,
		Type:      alert.Type,
		CRI:       alert.Data["cri"],
	})
	if err != nil {
		return fmt.Errorf("failed to render alert email: %w", err)
	}

	subject := fmt.Sprintf("[FarmWatch] %s", alert.Title)
	return e.sendEmail(settings.Email, subject, buf.String())
}

func enabled(settings database.FarmerSettings, alertType string) bool {
	switch alertType {
	case alerting.TypeBlightRisk:
		return settings.EnableRiskAlerts
	case alerting.TypeWeatherChange:
		return settings.EnableWeatherAlerts
	default:
		return true
	}
}

func (e *EmailNotifier) sendEmail(to, subject, body string) error {
	// Skip sending if SMTP is not configured
	if e.config.Username == "" || e.config.Password == "" {
		fmt.Printf("SMTP not configured, skipping email:\nTo: %s\nSubject: %s\n%s\n", to, subject, body)
		return nil
	}

	message := fmt.Sprintf("From: %s\r\n", e.config.From)
	message += fmt.Sprintf("To: %s\r\n", to)
	message += fmt.Sprintf("Subject: %s\r\n", subject)
	message += fmt.Sprintf("Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	message += "\r\n"
	message += body

	auth := smtp.PlainAuth("", e.config.Username, e.config.Password, e.config.Host)

	addr := fmt.Sprintf("%s:%d", e.config.Host, e.config.Port)
	if err := smtp.SendMail(addr, auth, e.config.From, []string{to}, []byte(message)); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	fmt.Printf("Email sent: %s -> %s\n", subject, to)
	return nil
}

// TestConnection tests the SMTP connection
func (e *EmailNotifier) TestConnection() error {
	if e.config.Username == "" {
		return fmt.Errorf("SMTP not configured")
	}

	addr := fmt.Sprintf("%s:%d", e.config.Host, e.config.Port)
	client, err := smtp.Dial(addr)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer client.Close()

	fmt.Println("SMTP connection test successful")
	return nil
}
