package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/dmoclinic/internal/client/models"
	"github.com/dmitrijs2005/dmoclinic/internal/common"
)

const messageTimeLayout = "2006-01-02 15:04"

// chatID resolves the chat a command refers to. Patients always use their
// own chat; clinicians name it in the first argument.
func (a *App) chatID(ctx context.Context, args []string) (string, []string, error) {
	if a.identity.IsClinician() {
		if len(args) == 0 {
			return "", nil, fmt.Errorf("%w: chat id required", common.ErrInvalidInput)
		}
		return args[0], args[1:], nil
	}
	c, err := a.chat.EnsureChat(ctx, a.identity.UserID)
	if err != nil {
		return "", nil, err
	}
	return c.ID, args, nil
}

func (a *App) showChat(ctx context.Context, args []string) error {
	id, _, err := a.chatID(ctx, args)
	if err != nil {
		return err
	}
	msgs, err := a.chat.Messages(ctx, id)
	if err != nil {
		return err
	}
	if len(msgs) == 0 {
		fmt.Fprintln(a.out, "No messages yet")
	}
	for _, m := range msgs {
		a.printMessage(m)
	}
	return nil
}

func (a *App) send(ctx context.Context, args []string) error {
	id, rest, err := a.chatID(ctx, args)
	if err != nil {
		return err
	}
	if len(rest) == 0 {
		return usageError("send [chat id] <text>")
	}
	m, err := a.chat.Send(ctx, id, a.identity.UserID, strings.Join(rest, " "))
	if err != nil {
		return err
	}
	a.printMessage(m)
	return nil
}

func (a *App) listSessions(ctx context.Context, _ []string) error {
	sessions, err := a.chat.Sessions(ctx)
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Fprintln(a.out, "No chats")
	}
	for _, s := range sessions {
		last, err := a.chat.LastMessage(ctx, s.ID)
		switch {
		case errors.Is(err, common.ErrorNotFound):
			fmt.Fprintf(a.out, "%s  %s  (no messages)\n", s.ID, s.UserUID)
		case err != nil:
			return err
		default:
			fmt.Fprintf(a.out, "%s  %s  %s: %s\n", s.ID, s.UserUID, a.sender(last), last.Content)
		}
	}
	return nil
}

func (a *App) sender(m *models.Message) string {
	if m.SenderUID == a.identity.UserID {
		return "you"
	}
	return m.SenderUID
}

func (a *App) printMessage(m *models.Message) {
	fmt.Fprintf(a.out, "[%s] %s: %s\n", m.Timestamp.Format(messageTimeLayout), a.sender(m), m.Content)
}
