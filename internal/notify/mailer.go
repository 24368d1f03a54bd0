package notify

import (
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
)

// Mailer sends transactional mail. Send failures are the caller's to log;
// they should never fail the originating request.
type Mailer interface {
	SendWelcome(toEmail, name string) error
	SendOTP(toEmail, code, purpose string) error
	SendEnrollment(toEmail, courseTitle string) error
	SendQuizResult(toEmail, quizTitle string, score float64, passed bool) error
}

type sendgridMailer struct {
	client *sendgrid.Client
	from   *mail.Email
}

func NewSendgridMailer(apiKey, fromEmail, fromName string) Mailer {
	return &sendgridMailer{
		client: sendgrid.NewSendClient(apiKey),
		from:   mail.NewEmail(fromName, fromEmail),
	}
}

func (m *sendgridMailer) send(toEmail, subject, html string) error {
	to := mail.NewEmail("", toEmail)
	msg := mail.NewSingleEmail(m.from, subject, to, "", wrap(subject, html))
	resp, err := m.client.Send(msg)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid: status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}

func (m *sendgridMailer) SendWelcome(toEmail, name string) error {
	body := fmt.Sprintf(`<p>Hi %s,</p><p>Your CourseKit account is ready. Verify your email with the code we sent separately, then sign in and start learning.</p>`, name)
	return m.send(toEmail, "Welcome to CourseKit", body)
}

func (m *sendgridMailer) SendOTP(toEmail, code, purpose string) error {
	body := fmt.Sprintf(`<p>Your one-time code for %s:</p><div class="code">%s</div><p>It expires in a few minutes. If you didn't request this, ignore this email.</p>`, purpose, code)
	return m.send(toEmail, "Your CourseKit verification code", body)
}

func (m *sendgridMailer) SendEnrollment(toEmail, courseTitle string) error {
	body := fmt.Sprintf(`<p>You are now enrolled in <strong>%s</strong>. Good luck!</p>`, courseTitle)
	return m.send(toEmail, "Enrollment confirmed", body)
}

func (m *sendgridMailer) SendQuizResult(toEmail, quizTitle string, score float64, passed bool) error {
	verdict := "did not pass"
	if passed {
		verdict = "passed"
	}
	body := fmt.Sprintf(`<p>You %s <strong>%s</strong> with a score of %.1f%%.</p>`, verdict, quizTitle, score)
	return m.send(toEmail, "Quiz result: "+quizTitle, body)
}

func wrap(title, bodyContent string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
<style>
  body { font-family: Helvetica, Arial, sans-serif; background: #f6f6f6; margin: 0; }
  .container { max-width: 600px; margin: 40px auto; background: #fff; border-radius: 8px; overflow: hidden; }
  .header { background: #1f2a44; padding: 24px; text-align: center; color: #fff; }
  .content { padding: 32px 24px; color: #1f2a44; line-height: 1.6; }
  .code { font-size: 28px; letter-spacing: 6px; font-weight: bold; text-align: center; padding: 12px; background: #eef2fb; border-radius: 4px; }
  .footer { padding: 16px; text-align: center; font-size: 12px; color: #666; }
</style>
</head>
<body>
  <div class="container">
    <div class="header"><h1>CourseKit</h1></div>
    <div class="content"><h2>%s</h2>%s</div>
    <div class="footer">You received this because you have a CourseKit account.</div>
  </div>
</body>
</html>`, title, bodyContent)
}

// noopMailer is used when no API key is configured (dev/offline).
type noopMailer struct{ log *zap.Logger }

func NewNoopMailer(log *zap.Logger) Mailer {
	if log == nil {
		log = zap.NewNop()
	}
	return &noopMailer{log: log}
}

func (m *noopMailer) SendWelcome(to, _ string) error {
	m.log.Debug("mail skipped (no API key)", zap.String("to", to), zap.String("kind", "welcome"))
	return nil
}

func (m *noopMailer) SendOTP(to, code, _ string) error {
	m.log.Info("mail skipped (no API key)", zap.String("to", to), zap.String("otp", code))
	return nil
}

func (m *noopMailer) SendEnrollment(to, _ string) error {
	m.log.Debug("mail skipped (no API key)", zap.String("to", to), zap.String("kind", "enrollment"))
	return nil
}

func (m *noopMailer) SendQuizResult(to, _ string, _ float64, _ bool) error {
	m.log.Debug("mail skipped (no API key)", zap.String("to", to), zap.String("kind", "quiz_result"))
	return nil
}
