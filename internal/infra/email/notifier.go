package email

import (
	"context"
	"fmt"
	"net/smtp"

	"go.uber.org/zap"
)

// SMTPNotifier mails authors when their trailer could not be generated.
type SMTPNotifier struct {
	host   string
	port   int
	from   string
	send   func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
	logger *zap.Logger
}

func NewSMTPNotifier(host string, port int, from string, logger *zap.Logger) *SMTPNotifier {
	return &SMTPNotifier{host: host, port: port, from: from, send: smtp.SendMail, logger: logger}
}

func (n *SMTPNotifier) NotifyFailure(_ context.Context, authorEmail, jobID, bookID, errorMsg string) error {
	if n.host == "" {
		n.logger.Debug("smtp not configured, skipping failure email", zap.String("job_id", jobID))
		return nil
	}
	addr := fmt.Sprintf("%s:%d", n.host, n.port)

	subject := fmt.Sprintf("Your book trailer could not be generated [Book %s]", bookID)
	body := fmt.Sprintf(
		"Hello,\r\n\r\n"+
			"We were unable to generate the trailer video for your book.\r\n\r\n"+
			"Book: %s\r\n"+
			"Job ID: %s\r\n"+
			"Error: %s\r\n\r\n"+
			"You can request a new trailer from your book page at any time.\r\n\r\n"+
			"-- Book Trailer Service",
		bookID, jobID, errorMsg,
	)

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s",
		n.from, authorEmail, subject, body,
	)

	if err := n.send(addr, nil, n.from, []string{authorEmail}, []byte(msg)); err != nil {
		n.logger.Error("failed to send failure notification email",
			zap.String("to", authorEmail),
			zap.String("job_id", jobID),
			zap.Error(err),
		)
		return fmt.Errorf("send email: %w", err)
	}

	n.logger.Info("failure notification email sent",
		zap.String("to", authorEmail),
		zap.String("job_id", jobID),
	)
	return nil
}
