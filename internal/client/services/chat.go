package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/dmoclinic/internal/client/models"
	"github.com/dmitrijs2005/dmoclinic/internal/common"
	"github.com/dmitrijs2005/dmoclinic/internal/logging"
	"github.com/dmitrijs2005/dmoclinic/internal/store"
	"github.com/dmitrijs2005/dmoclinic/internal/timex"
)

// ChatService is the one-to-one chat between a patient and the clinic.
// Each patient has a single session; messages are children of it.
type ChatService interface {
	EnsureChat(ctx context.Context, userUID string) (*models.ChatSession, error)
	Send(ctx context.Context, chatID, senderUID, content string) (*models.Message, error)
	Messages(ctx context.Context, chatID string) ([]*models.Message, error)
	LastMessage(ctx context.Context, chatID string) (*models.Message, error)
	Sessions(ctx context.Context) ([]*models.ChatSession, error)
}

type chatService struct {
	store  store.Store
	clock  timex.Clock
	logger logging.Logger
}

func NewChatService(s store.Store, clock timex.Clock, logger logging.Logger) ChatService {
	return &chatService{store: s, clock: clock, logger: logger.With("module", "chat")}
}

// EnsureChat returns the patient's session, creating chats/{userUID} when
// none exists yet.
func (s *chatService) EnsureChat(ctx context.Context, userUID string) (*models.ChatSession, error) {
	if strings.TrimSpace(userUID) == "" {
		return nil, fmt.Errorf("%w: empty user id", common.ErrInvalidInput)
	}

	sessions, err := s.Sessions(ctx)
	if err != nil {
		return nil, err
	}
	for _, c := range sessions {
		if c.UserUID == userUID {
			return c, nil
		}
	}

	c := &models.ChatSession{ID: userUID, UserUID: userUID}
	_, err = s.store.CompareAndSet(ctx, models.ChatPath(c.ID), c.Fields(), 0)
	switch {
	case err == nil:
		s.logger.Info(ctx, "chat created", "chat", c.ID)
		return c, nil
	case errors.Is(err, common.ErrVersionConflict):
		// Created concurrently.
		doc, err := s.store.Get(ctx, models.ChatPath(c.ID))
		if err != nil {
			return nil, fmt.Errorf("get chat: %w", err)
		}
		return models.ChatFromDocument(doc), nil
	default:
		return nil, fmt.Errorf("create chat: %w", err)
	}
}

func (s *chatService) Send(ctx context.Context, chatID, senderUID, content string) (*models.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("%w: empty message", common.ErrInvalidInput)
	}
	if _, err := s.store.Get(ctx, models.ChatPath(chatID)); err != nil {
		return nil, fmt.Errorf("chat %s: %w", chatID, err)
	}

	m := &models.Message{SenderUID: senderUID, Timestamp: s.clock.Now(), Content: content}
	id, err := s.store.Push(ctx, models.MessagesPath(chatID), m.Fields())
	if err != nil {
		return nil, fmt.Errorf("send message: %w", err)
	}
	m.ID = id
	return m, nil
}

// Messages returns the chat history, oldest first.
func (s *chatService) Messages(ctx context.Context, chatID string) ([]*models.Message, error) {
	docs, err := s.store.List(ctx, models.MessagesPath(chatID))
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	out := make([]*models.Message, 0, len(docs))
	for _, d := range docs {
		out = append(out, models.MessageFromDocument(d))
	}
	models.SortMessages(out)
	return out, nil
}

func (s *chatService) LastMessage(ctx context.Context, chatID string) (*models.Message, error) {
	msgs, err := s.Messages(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if len(msgs) == 0 {
		return nil, fmt.Errorf("chat %s has no messages: %w", chatID, common.ErrorNotFound)
	}
	return msgs[len(msgs)-1], nil
}

func (s *chatService) Sessions(ctx context.Context) ([]*models.ChatSession, error) {
	docs, err := s.store.List(ctx, models.ChatsCollection)
	if err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}
	out := make([]*models.ChatSession, 0, len(docs))
	for _, d := range docs {
		out = append(out, models.ChatFromDocument(d))
	}
	return out, nil
}
