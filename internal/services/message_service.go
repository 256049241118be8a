package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/campuslink/chatcore/internal/crypto"
	"github.com/campuslink/chatcore/internal/models"
	"github.com/campuslink/chatcore/internal/repositories"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var validate = validator.New()

var ErrValidation = errors.New("invalid request")

// Placeholders substituted on read paths. Integrity failures never fail a
// request; they render as a fixed string and are logged for operators.
const (
	PlaceholderUndecryptable = "[unable to decrypt]"
	PlaceholderAttachment    = "[attachment]"
)

// Notifier pushes best-effort live events after state changes. A nil Notifier
// means the live-connection subsystem is unavailable; durability never
// depends on it.
type Notifier interface {
	NotifyNewMessage(message *models.DecryptedMessage)
	NotifyMessageRead(senderID, messageID uuid.UUID)
}

// SendMessageCommand requires a sender, a distinct recipient, and at least
// one of content or attachment.
type SendMessageCommand struct {
	SenderID      uuid.UUID `validate:"required"`
	RecipientID   uuid.UUID `validate:"required"`
	Content       string    `validate:"required_without=AttachmentURL"`
	AttachmentURL string    `validate:"required_without=Content"`
}

type MessageService struct {
	messages repositories.MessageRepository
	codec    *crypto.Codec
	notifier Notifier
	log      *logrus.Logger
}

func NewMessageService(
	messages repositories.MessageRepository,
	codec *crypto.Codec,
	notifier Notifier,
	log *logrus.Logger,
) *MessageService {
	return &MessageService{
		messages: messages,
		codec:    codec,
		notifier: notifier,
		log:      log,
	}
}

// Send encrypts, persists and then fans out a new message. Persistence
// failures abort the operation; fan-out problems are logged and swallowed,
// the caller still gets a success with the stored message decrypted back.
func (s *MessageService) Send(ctx context.Context, cmd SendMessageCommand) (*models.DecryptedMessage, error) {
	if err := validate.Struct(cmd); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if cmd.SenderID == cmd.RecipientID {
		return nil, fmt.Errorf("%w: sender and recipient must differ", ErrValidation)
	}

	message := &models.Message{
		SenderID:    cmd.SenderID,
		RecipientID: cmd.RecipientID,
	}
	if cmd.AttachmentURL != "" {
		attachment := cmd.AttachmentURL
		message.AttachmentURL = &attachment
	}
	if cmd.Content != "" {
		envelope, err := s.codec.Seal(cmd.Content)
		if err != nil {
			return nil, fmt.Errorf("failed to encrypt message: %w", err)
		}
		message.Ciphertext = envelope.Ciphertext
		message.Nonce = envelope.Nonce
		message.AuthTag = envelope.AuthTag
	}

	if err := s.messages.Create(ctx, message); err != nil {
		return nil, err
	}

	decrypted := s.Decrypt(message)
	if s.notifier == nil {
		s.log.WithField("message_id", message.ID).
			Warn("live delivery unavailable, message persisted but not pushed")
	} else {
		s.notifier.NotifyNewMessage(decrypted)
	}

	return decrypted, nil
}

// Conversation returns the full decrypted history between two users,
// ascending by creation time.
func (s *MessageService) Conversation(ctx context.Context, userA, userB uuid.UUID) ([]*models.DecryptedMessage, error) {
	if userA == uuid.Nil || userB == uuid.Nil {
		return nil, fmt.Errorf("%w: both participants are required", ErrValidation)
	}

	messages, err := s.messages.Conversation(ctx, userA, userB)
	if err != nil {
		return nil, err
	}

	decrypted := make([]*models.DecryptedMessage, 0, len(messages))
	for _, message := range messages {
		decrypted = append(decrypted, s.Decrypt(message))
	}
	return decrypted, nil
}

// MarkRead flips the read flag and notifies the original sender if they are
// online. The flag is monotonic, so marking an already-read message is fine.
func (s *MessageService) MarkRead(ctx context.Context, id uuid.UUID) (*models.DecryptedMessage, error) {
	message, err := s.messages.MarkRead(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.notifier == nil {
		s.log.WithField("message_id", message.ID).
			Warn("live delivery unavailable, read receipt not pushed")
	} else {
		s.notifier.NotifyMessageRead(message.SenderID, message.ID)
	}

	return s.Decrypt(message), nil
}

// Decrypt converts a stored message into its client-facing form. A failed
// authentication tag is masked with a placeholder so read paths keep
// rendering, but every integrity failure is logged.
func (s *MessageService) Decrypt(message *models.Message) *models.DecryptedMessage {
	decrypted := &models.DecryptedMessage{
		ID:            message.ID,
		SenderID:      message.SenderID,
		RecipientID:   message.RecipientID,
		AttachmentURL: message.AttachmentURL,
		Read:          message.Read,
		CreatedAt:     message.CreatedAt,
	}

	if !message.HasContent() {
		return decrypted
	}

	plaintext, err := s.codec.Open(&crypto.Envelope{
		Ciphertext: message.Ciphertext,
		Nonce:      message.Nonce,
		AuthTag:    message.AuthTag,
	})
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"message_id": message.ID,
			"error":      err,
		}).Error("message failed integrity check, masking with placeholder")
		placeholder := PlaceholderUndecryptable
		decrypted.Content = &placeholder
		return decrypted
	}

	decrypted.Content = &plaintext
	return decrypted
}
