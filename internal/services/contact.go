package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/farman-pharma/apiserver/types"
)

// ContactChannel is the broker channel contact messages are published on.
const ContactChannel = "contact-mail"

// Publisher is the broker slice the contact service uses. Satisfied by *mq.MQ.
type Publisher interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
}

// MailSender delivers a contact message to the site owner.
type MailSender interface {
	Send(ctx context.Context, msg types.ContactMessage) error
}

// ContactService accepts contact-form submissions and hands them to the mail
// relay, through the broker when one is configured and inline otherwise.
type ContactService struct {
	publisher Publisher
	mailer    MailSender
	validate  *validator.Validate
	log       zerolog.Logger
}

func NewContactService(publisher Publisher, mailer MailSender, log zerolog.Logger) *ContactService {
	return &ContactService{
		publisher: publisher,
		mailer:    mailer,
		validate:  validator.New(),
		log:       log,
	}
}

// Submit validates and dispatches a contact message. With a broker the
// message is queued and delivery happens asynchronously; without one it is
// sent inline and a relay failure surfaces as upstream failure.
func (s *ContactService) Submit(ctx context.Context, msg types.ContactMessage) error {
	if err := s.validate.Struct(msg); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	msg.ReceivedAt = time.Now()

	if s.publisher != nil {
		data, err := json.Marshal(msg)
		if err != nil {
			return err
		}
		id, err := s.publisher.Publish(ctx, ContactChannel, data, map[string]string{"email": msg.Email})
		if err != nil {
			s.log.Error().Err(err).Msg("contact publish failed")
			return fmt.Errorf("%w: %v", ErrUpstream, err)
		}
		s.log.Info().Str("message_id", id).Msg("contact message queued")
		return nil
	}

	if err := s.mailer.Send(ctx, msg); err != nil {
		s.log.Error().Err(err).Msg("contact mail relay failed")
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	return nil
}
