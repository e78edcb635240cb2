package chatbot

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/persibuloi/kamenic/pkg/errors"
	"github.com/persibuloi/kamenic/pkg/logger"
)

const (
	Greeting            = "¡Hola! Soy tu asistente de fragancias. ¿En qué puedo ayudarte hoy?"
	UnavailableReply    = "El asistente no está disponible en este momento. Escríbenos por WhatsApp y con gusto te ayudamos."
	ConnectionFailReply = "Error: No se pudo conectar con el asistente de IA"

	userIDPrefix = "web-user-"
)

// Sender delivers a message to the assistant backend.
type Sender interface {
	Send(ctx context.Context, userID, message string, sentAt time.Time) (string, error)
}

type ServiceParams struct {
	Sender     Sender
	Transcript *Transcript
	Logger     *logger.Logger
	Now        func() time.Time
}

// Exchange is the user line and the bot answer of one send. Delivered is false when
// the answer is a failure notice.
type Exchange struct {
	Messages  []Message `json:"messages"`
	Delivered bool      `json:"delivered"`
}

type Conversation struct {
	Messages []Message `json:"messages"`
}

type Service interface {
	Send(ctx context.Context, sessionID, text string) (Exchange, error)
	History(ctx context.Context, sessionID string) (Conversation, error)
	Clear(ctx context.Context, sessionID string) error
}

type service struct {
	sender     Sender
	transcript *Transcript
	logg       *logger.Logger
	now        func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Transcript == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "chat transcript is required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{sender: params.Sender, transcript: params.Transcript, logg: logg, now: now}, nil
}

func (s *service) message(role, text string) Message {
	return Message{ID: uuid.NewString(), Role: role, Text: text, Timestamp: s.now().UTC()}
}

// Send never reports webhook failures as errors; they become the bot's answer.
func (s *service) Send(ctx context.Context, sessionID, text string) (Exchange, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Exchange{}, pkgerrors.New(pkgerrors.CodeValidation, "message is required")
	}
	if sessionID == "" {
		return Exchange{}, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}

	userMsg := s.message(RoleUser, text)
	reply, delivered := s.ask(ctx, sessionID, text, userMsg.Timestamp)
	botMsg := s.message(RoleBot, reply)

	if err := s.transcript.Append(ctx, sessionID, userMsg, botMsg); err != nil {
		s.logg.Error(s.logg.WithSessionID(ctx, sessionID), "chatbot.transcript_write_failed", err)
	}
	return Exchange{Messages: []Message{userMsg, botMsg}, Delivered: delivered}, nil
}

func (s *service) ask(ctx context.Context, sessionID, text string, sentAt time.Time) (string, bool) {
	if s.sender == nil {
		s.logg.Warn(s.logg.WithSessionID(ctx, sessionID), "chatbot.webhook_unconfigured")
		return UnavailableReply, false
	}
	reply, err := s.sender.Send(ctx, userIDPrefix+sessionID, text, sentAt)
	if err != nil {
		s.logg.Error(s.logg.WithSessionID(ctx, sessionID), "chatbot.send_failed", err)
		return ConnectionFailReply, false
	}
	return reply, true
}

// History starts with the greeting when the session has not chatted yet.
func (s *service) History(ctx context.Context, sessionID string) (Conversation, error) {
	if sessionID == "" {
		return Conversation{}, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	msgs, err := s.transcript.History(ctx, sessionID)
	if err != nil {
		return Conversation{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load chat history")
	}
	if len(msgs) == 0 {
		msgs = []Message{s.message(RoleBot, Greeting)}
	}
	return Conversation{Messages: msgs}, nil
}

func (s *service) Clear(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	if err := s.transcript.Clear(ctx, sessionID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear chat history")
	}
	return nil
}
