package services

import (
	"crypto/tls"
	"fmt"
	"log"
	"net/smtp"
	"os"
	"strings"
	"time"

	"github.com/puretrustgold/puretrust-api/model"
)

// EmailService handles sending transactional emails via SMTP
type EmailService struct {
	host       string
	port       int
	username   string
	password   string
	from       string
	appURL     string
	adminEmail string
}

// NewEmailService creates a new email service instance
func NewEmailService() *EmailService {
	port := 587
	if p := os.Getenv("SMTP_PORT"); p != "" {
		fmt.Sscanf(p, "%d", &port)
	}

	return &EmailService{
		host:       getEnvOrDefault("SMTP_HOST", "smtp.gmail.com"),
		port:       port,
		username:   os.Getenv("SMTP_USERNAME"),
		password:   os.Getenv("SMTP_PASSWORD"),
		from:       getEnvOrDefault("SMTP_FROM", "noreply@puretrustgold.com"),
		appURL:     getEnvOrDefault("APP_URL", "http://localhost:3000"),
		adminEmail: os.Getenv("ADMIN_EMAIL"),
	}
}

// getEnvOrDefault returns the environment variable value or a default
func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// IsConfigured checks if SMTP is properly configured
func (e *EmailService) IsConfigured() bool {
	return e.username != "" && e.password != ""
}

// SendAppointmentConfirmation emails a customer after booking an appraisal
func (e *EmailService) SendAppointmentConfirmation(appt *model.Appointment) error {
	if !e.IsConfigured() {
		log.Printf("SMTP not configured. Skipping confirmation email for appointment %s", appt.ID)
		return fmt.Errorf("SMTP not configured")
	}

	subject := "Your Appraisal Appointment - PureTrust Gold"
	body := e.buildEmailBody(
		appt.Name,
		"Your appointment is booked",
		fmt.Sprintf(
			"We have received your appraisal request for %s at our %s office on %s. "+
				"Our specialists will have everything prepared for your visit. "+
				"If you need to reschedule, simply reply to this email.",
			appt.ItemType, appt.Location, appt.DateTime.Format("Monday, 2 January 2006 at 15:04"),
		),
	)

	return e.sendEmail(appt.Email, subject, body)
}

// SendContactAcknowledgement emails a customer after a contact enquiry
func (e *EmailService) SendContactAcknowledgement(msg *model.ContactMessage) error {
	if !e.IsConfigured() {
		log.Printf("SMTP not configured. Skipping acknowledgement for contact %s", msg.ID)
		return fmt.Errorf("SMTP not configured")
	}

	subject := "We received your message - PureTrust Gold"
	body := e.buildEmailBody(
		msg.Name,
		"Thank you for getting in touch",
		"Your message has reached our concierge team. A specialist will reply within one business day. "+
			"For urgent valuations, the live chat on our site connects you with a specialist directly.",
	)

	return e.sendEmail(msg.Email, subject, body)
}

// SendContactReply emails an operator's reply to a contact enquiry
func (e *EmailService) SendContactReply(msg *model.ContactMessage, replyBody string) error {
	if !e.IsConfigured() {
		return fmt.Errorf("SMTP not configured")
	}

	subject := "Re: your enquiry - PureTrust Gold"
	body := e.buildEmailBody(msg.Name, "A reply from our specialists", replyBody)

	return e.sendEmail(msg.Email, subject, body)
}

// SendTransportConfirmation emails a customer after a transport booking
func (e *EmailService) SendTransportConfirmation(req *model.TransportRequest) error {
	if !e.IsConfigured() {
		log.Printf("SMTP not configured. Skipping confirmation for transport request %s", req.ID)
		return fmt.Errorf("SMTP not configured")
	}

	when := "a date our logistics team will confirm with you"
	if req.PreferredDate != nil {
		when = req.PreferredDate.Format("Monday, 2 January 2006")
	}

	subject := "Secure Transport Request Received - PureTrust Gold"
	body := e.buildEmailBody(
		req.Name,
		"Your secure transport request is in",
		fmt.Sprintf(
			"We have registered your insured collection from %s for %s. "+
				"Our logistics partner will contact you within 24 hours to confirm the details.",
			req.PickupAddress, when,
		),
	)

	return e.sendEmail(req.Email, subject, body)
}

// NotifyAdmin sends a back office copy of a customer event. A missing
// ADMIN_EMAIL disables these without being an error.
func (e *EmailService) NotifyAdmin(subject, heading, paragraph string) error {
	if e.adminEmail == "" {
		return nil
	}
	if !e.IsConfigured() {
		return fmt.Errorf("SMTP not configured")
	}

	body := e.buildEmailBody("team", heading, paragraph)
	return e.sendEmail(e.adminEmail, subject, body)
}

// buildEmailBody creates the branded HTML email body
func (e *EmailService) buildEmailBody(recipientName, heading, paragraph string) string {
	if recipientName == "" {
		recipientName = "Customer"
	}

	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>%s - PureTrust Gold</title>
    <style>
        body {
            font-family: Georgia, 'Times New Roman', serif;
            line-height: 1.6;
            color: #2b2b2b;
            max-width: 600px;
            margin: 0 auto;
            padding: 20px;
            background-color: #faf8f4;
        }
        .container {
            background-color: #ffffff;
            border-radius: 8px;
            padding: 40px;
            box-shadow: 0 2px 4px rgba(0, 0, 0, 0.08);
        }
        .logo {
            text-align: center;
            margin-bottom: 30px;
            padding-bottom: 20px;
            border-bottom: 2px solid #b8860b;
        }
        .logo h1 {
            color: #b8860b;
            font-size: 28px;
            margin: 0;
            letter-spacing: 1px;
        }
        h2 {
            color: #b8860b;
            margin-top: 0;
        }
        .footer {
            margin-top: 30px;
            padding-top: 20px;
            border-top: 1px solid #eee;
            font-size: 12px;
            color: #999;
            text-align: center;
        }
    </style>
</head>
<body>
    <div class="container">
        <div class="logo">
            <h1>PureTrust Gold</h1>
        </div>
        <h2>%s</h2>
        <p>Dear %s,</p>
        <p>%s</p>
        <p>With kind regards,<br>The PureTrust Gold Team</p>
        <div class="footer">
            <p>PureTrust Gold &middot; <a href="%s">%s</a></p>
            <p>&copy; %d PureTrust Gold. All rights reserved.</p>
        </div>
    </div>
</body>
</html>`, heading, heading, recipientName, paragraph, e.appURL, e.appURL, time.Now().Year())
}

func (e *EmailService) sendEmail(to, subject, htmlBody string) error {
	// Build the email message with proper headers
	headers := make(map[string]string)
	headers["From"] = fmt.Sprintf("PureTrust Gold <%s>", e.from)
	headers["Reply-To"] = "concierge@puretrustgold.com"
	headers["To"] = to
	headers["Subject"] = subject
	headers["MIME-Version"] = "1.0"
	headers["Content-Type"] = "text/html; charset=UTF-8"
	headers["X-Mailer"] = "PureTrust Gold Mailer"

	var message strings.Builder
	for k, v := range headers {
		message.WriteString(fmt.Sprintf("%s: %s\r\n", k, v))
	}
	message.WriteString("\r\n")
	message.WriteString(htmlBody)

	addr := fmt.Sprintf("%s:%d", e.host, e.port)
	auth := smtp.PlainAuth("", e.username, e.password, e.host)

	tlsConfig := &tls.Config{
		InsecureSkipVerify: false,
		ServerName:         e.host,
	}

	conn, err := smtp.Dial(addr)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer conn.Close()

	if err := conn.StartTLS(tlsConfig); err != nil {
		return fmt.Errorf("failed to start TLS: %w", err)
	}

	if err := conn.Auth(auth); err != nil {
		return fmt.Errorf("SMTP authentication failed: %w", err)
	}

	if err := conn.Mail(e.from); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}

	if err := conn.Rcpt(to); err != nil {
		return fmt.Errorf("failed to set recipient: %w", err)
	}

	w, err := conn.Data()
	if err != nil {
		return fmt.Errorf("failed to get data writer: %w", err)
	}

	_, err = w.Write([]byte(message.String()))
	if err != nil {
		return fmt.Errorf("failed to write email body: %w", err)
	}

	err = w.Close()
	if err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	conn.Quit()

	log.Printf("Email sent successfully to: %s", to)
	return nil
}
