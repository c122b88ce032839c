// Package assistant combines the stores, the dialog machine and the
// completion client behind a single entry point for transports.
package assistant

import (
	"context"
	"errors"
	"log"
	"strconv"
	"strings"
	"sync"

	"github.com/nekoverse/nekobot/internal/llm"
	model "github.com/nekoverse/nekobot/internal/model/conversation"
	"github.com/nekoverse/nekobot/internal/service/conversation"
	"github.com/nekoverse/nekobot/internal/service/dialog"
	"github.com/nekoverse/nekobot/internal/service/folder"
)

// EventKind names an inbound transport event.
type EventKind string

const (
	EventStart        EventKind = "start"
	EventNewChat      EventKind = "new_chat"
	EventClearChat    EventKind = "clear_chat"
	EventListFolders  EventKind = "list_folders"
	EventListChats    EventKind = "list_chats"
	EventCreateFolder EventKind = "create_folder"
	EventText         EventKind = "text"
)

// Completer is the external completion boundary. The llm client satisfies
// it; tests substitute fakes.
type Completer interface {
	ChatCompletion(ctx context.Context, messages []llm.Message) (string, error)
}

// Service routes user events through the dialog machine and the stores.
// All events of one user serialize on a per-user mutex; the mutex is not
// held across the completion call.
type Service struct {
	folders   *folder.Service
	chats     *conversation.Service
	dialogs   *dialog.Machine
	assembler *ContextAssembler
	matcher   *Matcher
	completer Completer

	lockMu    sync.Mutex
	userLocks map[int64]*sync.Mutex
}

func NewService(folders *folder.Service, chats *conversation.Service, completer Completer, systemPrompt string, triggers []Trigger) *Service {
	return &Service{
		folders:   folders,
		chats:     chats,
		dialogs:   dialog.NewMachine(),
		assembler: NewContextAssembler(chats, systemPrompt),
		matcher:   NewMatcher(triggers),
		completer: completer,
		userLocks: make(map[int64]*sync.Mutex),
	}
}

func (s *Service) userLock(userID int64) *sync.Mutex {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()
	mu, ok := s.userLocks[userID]
	if !ok {
		mu = &sync.Mutex{}
		s.userLocks[userID] = mu
	}
	return mu
}

// HandleEvent resolves one inbound event to the text the transport should
// deliver back. Explicit commands abandon any pending dialog prompt.
func (s *Service) HandleEvent(ctx context.Context, userID int64, kind EventKind, text string) string {
	mu := s.userLock(userID)

	switch kind {
	case EventStart:
		s.dialogs.Reset(userID)
		return replyWelcome

	case EventNewChat:
		mu.Lock()
		s.chats.Create(ctx, userID, "")
		mu.Unlock()
		s.dialogs.Reset(userID)
		return replyNewChat

	case EventClearChat:
		mu.Lock()
		chatID, ok := s.chats.CurrentIfAny(ctx, userID)
		if ok {
			s.chats.Clear(ctx, chatID)
		}
		mu.Unlock()
		s.dialogs.Reset(userID)
		if !ok {
			return replyChatNotFound
		}
		return replyChatCleared

	case EventListFolders:
		mu.Lock()
		folders := s.folders.List(ctx, userID)
		mu.Unlock()
		s.dialogs.Reset(userID)
		return formatFolders(folders)

	case EventCreateFolder:
		s.dialogs.Set(userID, dialog.AwaitingFolderName)
		return replyFolderPrompt

	case EventListChats:
		mu.Lock()
		folders := s.folders.List(ctx, userID)
		mu.Unlock()
		s.dialogs.Set(userID, dialog.AwaitingFolderSelection)
		return formatFolders(folders) + "\n\n" + replyChatsPrompt

	case EventText:
		return s.handleText(ctx, mu, userID, text)
	}

	log.Printf("[assistant] unknown event kind %q from user %d", kind, userID)
	return replyUnknownEvent
}

func (s *Service) handleText(ctx context.Context, mu *sync.Mutex, userID int64, text string) string {
	switch s.dialogs.Consume(userID) {
	case dialog.AwaitingFolderName:
		mu.Lock()
		_, err := s.folders.Create(ctx, userID, text)
		mu.Unlock()
		if errors.Is(err, folder.ErrNameTooLong) {
			return replyNameTooLong
		}
		return replyFolderCreated(text)

	case dialog.AwaitingFolderSelection:
		mu.Lock()
		defer mu.Unlock()
		return s.selectFolderChats(ctx, userID, text)
	}

	// Plain message. Canned triggers bypass history and the model alike.
	if reply, ok := s.matcher.Match(text); ok {
		return reply
	}

	mu.Lock()
	chatID := s.chats.Current(ctx, userID)
	payload := s.assembler.BuildRequest(ctx, chatID, text)
	mu.Unlock()

	// The lock stays released while the completion call is in flight so a
	// slow model does not serialize the user's other events.
	reply, err := s.completer.ChatCompletion(ctx, payload)
	if err != nil {
		log.Printf("[assistant] completion failed for user %d: %v", userID, err)
		return advisoryFor(err)
	}

	// Both turns land together; a failed call stores neither.
	mu.Lock()
	s.chats.Append(ctx, chatID, model.RoleUser, text)
	s.chats.Append(ctx, chatID, model.RoleAssistant, reply)
	mu.Unlock()

	return reply
}

// selectFolderChats resolves a 1-based folder index typed after the list
// chats prompt. Bad input gets an advisory; the prompt is not re-armed.
func (s *Service) selectFolderChats(ctx context.Context, userID int64, text string) string {
	index, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return replyNotANumber
	}

	folders := s.folders.List(ctx, userID)
	if index < 1 || index > len(folders) {
		return replyBadFolderIndex
	}

	selected := folders[index-1]
	chats := s.chats.ListByUser(ctx, userID, selected.ID)
	currentID, _ := s.chats.CurrentIfAny(ctx, userID)
	return formatFolderChats(selected.Name, chats, currentID)
}

// Folders lists the user's folders for transports that render them
// directly.
func (s *Service) Folders(ctx context.Context, userID int64) []model.Folder {
	mu := s.userLock(userID)
	mu.Lock()
	defer mu.Unlock()
	return s.folders.List(ctx, userID)
}

// Chats lists the user's chats, optionally restricted to one folder.
func (s *Service) Chats(ctx context.Context, userID int64, folderID string) map[string]model.Chat {
	return s.chats.ListByUser(ctx, userID, folderID)
}

// DeleteFolder removes an empty folder owned by the user.
func (s *Service) DeleteFolder(ctx context.Context, userID int64, folderID string) bool {
	mu := s.userLock(userID)
	mu.Lock()
	defer mu.Unlock()
	return s.folders.Delete(ctx, userID, folderID)
}

// MoveChat files a chat under the given folder, keeping membership and the
// chat's own folder reference in step.
func (s *Service) MoveChat(ctx context.Context, chatID, folderID string) bool {
	if !s.folders.MoveChat(ctx, chatID, folderID) {
		return false
	}
	s.chats.SetFolder(ctx, chatID, folderID)
	return true
}

// SwitchChat points the user at another of their chats.
func (s *Service) SwitchChat(ctx context.Context, userID int64, chatID string) bool {
	mu := s.userLock(userID)
	mu.Lock()
	defer mu.Unlock()
	return s.chats.Switch(ctx, userID, chatID)
}
