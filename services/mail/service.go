package mail

import (
	"bytes"
	"fmt"
	"time"

	"github.com/taskly-app/identity/config"
	"github.com/taskly-app/identity/services/logging"
	"github.com/taskly-app/identity/services/otp"
	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

// MailClient abstracts the SMTP transport so tests can inject a double.
type MailClient interface {
	DialAndSend(messages ...*mail.Msg) error
}

type Service struct {
	config *config.MailConfig
	app    *config.AppConfig
	client MailClient
	expiry time.Duration
	logger *logging.Service
}

func NewService(cfg *config.Config, logger *logging.Service) (*Service, error) {
	if cfg.Mail.FromAddress == "" {
		if logger != nil {
			logger.Error("mail service initialization failed: FROM_ADDRESS is required")
		}
		return nil, fmt.Errorf("TASKLY_MAIL_FROM_ADDRESS is required")
	}

	clientOpts := []mail.Option{
		mail.WithPort(cfg.Mail.Port),
	}

	switch cfg.Mail.Encryption {
	case "tls", "starttls":
		clientOpts = append(clientOpts, mail.WithTLSPortPolicy(mail.TLSMandatory))
	case "ssl":
		clientOpts = append(clientOpts, mail.WithSSL())
	case "none":
		clientOpts = append(clientOpts, mail.WithTLSPortPolicy(mail.NoTLS))
	default:
		clientOpts = append(clientOpts, mail.WithTLSPortPolicy(mail.TLSMandatory))
	}

	if cfg.Mail.Username != "" {
		clientOpts = append(clientOpts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Mail.Username))
	}
	if cfg.Mail.Password != "" {
		clientOpts = append(clientOpts, mail.WithPassword(cfg.Mail.Password))
	}

	client, err := mail.NewClient(cfg.Mail.Host, clientOpts...)
	if err != nil {
		if logger != nil {
			logger.Error("failed to create mail client",
				zap.Error(err),
				zap.String("host", cfg.Mail.Host),
				zap.Int("port", cfg.Mail.Port))
		}
		return nil, fmt.Errorf("failed to create mail client: %w", err)
	}

	return NewServiceWithClient(cfg, logger, client)
}

func NewServiceWithClient(cfg *config.Config, logger *logging.Service, client MailClient) (*Service, error) {
	if cfg.Mail.FromAddress == "" {
		return nil, fmt.Errorf("TASKLY_MAIL_FROM_ADDRESS is required")
	}

	return &Service{
		config: &cfg.Mail,
		app:    &cfg.App,
		client: client,
		expiry: cfg.OTP.Expiry,
		logger: logger,
	}, nil
}

func (s *Service) NewMessage() *mail.Msg {
	message := mail.NewMsg()

	fromAddr := s.config.FromAddress
	if s.config.FromName != "" {
		fromAddr = fmt.Sprintf("%s <%s>", s.config.FromName, s.config.FromAddress)
	}

	if err := message.From(fromAddr); err != nil {
		panic(fmt.Sprintf("failed to set FROM address: %s", err))
	}

	return message
}

func (s *Service) Send(message *mail.Msg) error {
	startTime := time.Now()
	err := s.client.DialAndSend(message)
	duration := time.Since(startTime)

	if err != nil {
		s.logger.Error("failed to send email",
			zap.Error(err),
			zap.Duration("attempt_duration", duration))
		return err
	}

	s.logger.Info("email sent", zap.Duration("send_duration", duration))
	return nil
}

// SendOTP implements otp.Notifier: one email per purpose, HTML body with a
// plain-text alternative.
func (s *Service) SendOTP(email string, purpose otp.Purpose, code string) error {
	s.logger.Info("sending OTP email",
		zap.String("email", email),
		zap.String("purpose", string(purpose)))

	pc := copyForPurpose(purpose, s.app.Name)
	data := templateData{
		AppName:       s.app.Name,
		Code:          code,
		ExpiryMinutes: int(s.expiry.Minutes()),
		Heading:       pc.heading,
		Title:         pc.title,
		Intro:         pc.intro,
		Outro:         pc.outro,
	}

	var htmlBuf bytes.Buffer
	if err := otpHTMLTmpl.Execute(&htmlBuf, data); err != nil {
		return fmt.Errorf("failed to render OTP email: %w", err)
	}
	var textBuf bytes.Buffer
	if err := otpTextTmpl.Execute(&textBuf, data); err != nil {
		return fmt.Errorf("failed to render OTP email: %w", err)
	}

	message := s.NewMessage()
	if err := message.To(email); err != nil {
		return fmt.Errorf("failed to set TO address: %w", err)
	}
	message.Subject(fmt.Sprintf("%s - %s", pc.subject, s.app.Name))
	message.SetBodyString(mail.TypeTextHTML, htmlBuf.String())
	message.AddAlternativeString(mail.TypeTextPlain, textBuf.String())

	return s.Send(message)
}

// SendPasswordChanged is a best-effort confirmation after a successful reset.
func (s *Service) SendPasswordChanged(email string) error {
	data := templateData{AppName: s.app.Name}

	var htmlBuf bytes.Buffer
	if err := passwordChangedTemplate.Execute(&htmlBuf, data); err != nil {
		return fmt.Errorf("failed to render confirmation email: %w", err)
	}

	message := s.NewMessage()
	if err := message.To(email); err != nil {
		return fmt.Errorf("failed to set TO address: %w", err)
	}
	message.Subject(fmt.Sprintf("Your password was changed - %s", s.app.Name))
	message.SetBodyString(mail.TypeTextHTML, htmlBuf.String())

	return s.Send(message)
}
