package notify

import (
	"fmt"
	"log"
	"net/smtp"
)

// Notifier is told about newly accepted connections. Implementations
// are fire-and-forget: they must never block or fail connection
// acceptance.
type Notifier interface {
	ClientConnected(id string)
}

// SMTPConfig configures the connect-notification mailer.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	To       string
}

// SMTPNotifier mails the operator when a new client connects.
type SMTPNotifier struct {
	log  *log.Logger
	cfg  SMTPConfig
	addr string
}

func NewSMTPNotifier(logger *log.Logger, cfg SMTPConfig) (*SMTPNotifier, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("smtp host cannot be empty")
	}
	if cfg.To == "" {
		return nil, fmt.Errorf("notification recipient cannot be empty")
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}

	return &SMTPNotifier{
		log:  logger,
		cfg:  cfg,
		addr: fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
	}, nil
}

func (n *SMTPNotifier) ClientConnected(id string) {
	go func() {
		body := fmt.Sprintf("To: %s\r\nSubject: New Client Connected\r\n\r\n"+
			"A new client has connected with session ID: %s\r\n", n.cfg.To, id)

		var auth smtp.Auth
		if n.cfg.Username != "" {
			auth = smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)
		}

		if err := smtp.SendMail(n.addr, auth, n.cfg.Username, []string{n.cfg.To}, []byte(body)); err != nil {
			n.log.Println("error sending connect notification:", err)
			return
		}

		n.log.Printf("connect notification sent for %s", id)
	}()
}

// NoopNotifier is used when no mail settings are configured.
type NoopNotifier struct{}

func (NoopNotifier) ClientConnected(string) {}
