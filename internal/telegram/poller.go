package telegram

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/nekoverse/nekobot/internal/service/assistant"
)

// Button labels rendered on the reply keyboards. Inbound text matching a
// label dispatches like the corresponding slash command.
const (
	buttonNewChat      = "🆕 Новый чат"
	buttonClearChat    = "🧹 Очистить чат"
	buttonFolders      = "📂 Папки"
	buttonMyChats      = "📋 Мои чаты"
	buttonCreateFolder = "📁 Создать папку"
	buttonHome         = "🏠 Главная"

	menuText = "Главное меню:"
)

// Poller drives the long-poll loop and maps Telegram messages onto
// assistant events.
type Poller struct {
	client       *Client
	assistantSvc *assistant.Service
	pollTimeout  int
}

func NewPoller(client *Client, assistantSvc *assistant.Service, pollTimeout int) *Poller {
	return &Poller{
		client:       client,
		assistantSvc: assistantSvc,
		pollTimeout:  pollTimeout,
	}
}

// Run polls until ctx is cancelled. Each update is handled on its own
// goroutine; same-user ordering is the assistant's concern.
func (p *Poller) Run(ctx context.Context) {
	log.Printf("[telegram] poller started")
	var offset int64

	for {
		select {
		case <-ctx.Done():
			log.Printf("[telegram] poller stopped")
			return
		default:
		}

		updates, err := p.client.GetUpdates(offset, p.pollTimeout)
		if err != nil {
			log.Printf("[telegram] getUpdates failed: %v", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(3 * time.Second):
			}
			continue
		}

		for _, update := range updates {
			if update.UpdateID >= offset {
				offset = update.UpdateID + 1
			}
			if update.Message == nil || update.Message.From == nil {
				continue
			}
			go p.dispatch(ctx, update.Message)
		}
	}
}

func (p *Poller) dispatch(ctx context.Context, msg *Message) {
	userID := msg.From.ID
	chatID := msg.Chat.ID
	text := strings.TrimSpace(msg.Text)

	if text == buttonHome {
		// Transport-owned shortcut: drop any pending prompt and re-show
		// the main keyboard.
		_ = p.assistantSvc.HandleEvent(ctx, userID, assistant.EventStart, "")
		p.send(chatID, menuText, mainKeyboard())
		return
	}

	kind := classify(text)
	if kind == assistant.EventText {
		_ = p.client.SendTyping(chatID)
	}

	response := p.assistantSvc.HandleEvent(ctx, userID, kind, text)
	p.send(chatID, response, keyboardFor(kind))
}

func (p *Poller) send(chatID int64, text string, markup *ReplyKeyboard) {
	if err := p.client.SendMessage(chatID, text, markup); err != nil {
		log.Printf("[telegram] sendMessage failed for chat %d: %v", chatID, err)
	}
}

func classify(text string) assistant.EventKind {
	switch {
	case text == "/start" || text == "/help":
		return assistant.EventStart
	case text == "/new" || text == buttonNewChat:
		return assistant.EventNewChat
	case text == "/clear" || text == buttonClearChat:
		return assistant.EventClearChat
	case text == "/folders" || text == buttonFolders:
		return assistant.EventListFolders
	case text == "/chats" || text == buttonMyChats:
		return assistant.EventListChats
	case text == buttonCreateFolder:
		return assistant.EventCreateFolder
	default:
		return assistant.EventText
	}
}

func keyboardFor(kind assistant.EventKind) *ReplyKeyboard {
	switch kind {
	case assistant.EventStart:
		return mainKeyboard()
	case assistant.EventListFolders:
		return foldersKeyboard()
	default:
		return nil
	}
}

func mainKeyboard() *ReplyKeyboard {
	return &ReplyKeyboard{
		ResizeKeyboard: true,
		Keyboard: [][]KeyboardButton{
			{{Text: buttonNewChat}, {Text: buttonClearChat}},
			{{Text: buttonFolders}, {Text: buttonMyChats}},
		},
	}
}

func foldersKeyboard() *ReplyKeyboard {
	return &ReplyKeyboard{
		ResizeKeyboard: true,
		Keyboard: [][]KeyboardButton{
			{{Text: buttonCreateFolder}, {Text: buttonMyChats}},
			{{Text: buttonHome}},
		},
	}
}
