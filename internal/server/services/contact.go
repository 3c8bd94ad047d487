package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/folio/internal/common"
	"github.com/dmitrijs2005/folio/internal/logging"
	"github.com/dmitrijs2005/folio/internal/server/mail"
	"github.com/dmitrijs2005/folio/internal/server/models"
)

// ContactService forwards contact form submissions to the site owner and
// confirms receipt to the sender.
type ContactService struct {
	dispatcher mail.Dispatcher
	recipient  string
	logger     logging.Logger
}

func NewContactService(d mail.Dispatcher, recipient string, logger logging.Logger) *ContactService {
	return &ContactService{dispatcher: d, recipient: recipient, logger: logger}
}

func notification(msg models.ContactMessage) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Email: %s\n", msg.Email)
	fmt.Fprintf(&b, "Company: %s\n", msg.Company)
	fmt.Fprintf(&b, "Name: %s\n", msg.Person)
	b.WriteString("\n")
	b.WriteString(msg.Content)
	return b.String()
}

func autoReply(msg models.ContactMessage) string {
	name := msg.Person
	if name == "" {
		name = msg.Email
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s,\n\n", name)
	b.WriteString("Thank you for getting in touch. Your message has been received and I will reply as soon as possible.\n\n")
	b.WriteString("Your message:\n\n")
	b.WriteString(msg.Content)
	return b.String()
}

// Submit validates msg and dispatches the owner notification and the
// auto-reply.
func (s *ContactService) Submit(ctx context.Context, msg models.ContactMessage) error {
	if err := Validate(msg); err != nil {
		return err
	}

	if s.recipient == "" {
		s.logger.Warn(ctx, "contact recipient not configured, notification skipped")
	} else {
		err := s.dispatcher.Dispatch(ctx, mail.Message{
			To:      s.recipient,
			Subject: "New contact from " + msg.Email,
			Body:    notification(msg),
		})
		if err != nil {
			return common.ErrInternal.Wrap(err)
		}
	}

	err := s.dispatcher.Dispatch(ctx, mail.Message{
		To:      msg.Email,
		Subject: "Thank you for your message",
		Body:    autoReply(msg),
	})
	if err != nil {
		return common.ErrInternal.Wrap(err)
	}
	return nil
}
