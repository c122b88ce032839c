package conversation

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	model "github.com/nekoverse/nekobot/internal/model/conversation"
)

// titleLimit is the rune budget for chat titles derived from the first
// user message.
const titleLimit = 30

// Folders is the folder membership surface the chat service needs. The
// folder service satisfies it; coupling stays on identifiers only.
type Folders interface {
	EnsureDefault(ctx context.Context, userID int64) string
	MoveChat(ctx context.Context, chatID, folderID string) bool
}

type chatEntry struct {
	meta model.Chat
	log  history
}

// Service owns chats and the user→current-chat pointer.
type Service struct {
	mu      sync.RWMutex
	chats   map[string]*chatEntry
	current map[int64]string
	folders Folders
}

// NewService bootstraps the in-memory chat service.
func NewService(folders Folders) *Service {
	return &Service{
		chats:   make(map[string]*chatEntry),
		current: make(map[int64]string),
		folders: folders,
	}
}

// Create provisions a chat, makes it the user's current chat and files it
// under folderID, or under the user's first folder when folderID is empty.
func (s *Service) Create(ctx context.Context, userID int64, folderID string) string {
	if folderID == "" {
		folderID = s.folders.EnsureDefault(ctx, userID)
	}

	entry := &chatEntry{
		meta: model.Chat{
			ID:        uuid.NewString(),
			OwnerID:   userID,
			Title:     "Чат от " + time.Now().Format("02.01 15:04"),
			FolderID:  folderID,
			CreatedAt: time.Now().UTC(),
		},
	}

	s.mu.Lock()
	s.chats[entry.meta.ID] = entry
	s.current[userID] = entry.meta.ID
	s.mu.Unlock()

	s.folders.MoveChat(ctx, entry.meta.ID, folderID)
	return entry.meta.ID
}

// Current returns the user's current chat id, creating a chat first if the
// user has none.
func (s *Service) Current(ctx context.Context, userID int64) string {
	s.mu.RLock()
	id, ok := s.current[userID]
	s.mu.RUnlock()
	if ok {
		return id
	}
	return s.Create(ctx, userID, "")
}

// CurrentIfAny reports the user's current chat without creating one.
func (s *Service) CurrentIfAny(_ context.Context, userID int64) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.current[userID]
	return id, ok
}

// Switch moves the user's current-chat pointer. Reports false when the chat
// is unknown or owned by someone else.
func (s *Service) Switch(_ context.Context, userID int64, chatID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.chats[chatID]
	if !ok || entry.meta.OwnerID != userID {
		return false
	}
	s.current[userID] = chatID
	return true
}

// Messages returns the chat's message log in stored order. Unknown chats
// yield an empty slice.
func (s *Service) Messages(_ context.Context, chatID string) []model.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.chats[chatID]
	if !ok {
		return nil
	}
	return entry.log.snapshot()
}

// Append adds a timestamped message to the chat. The first user-role
// message also becomes the chat title, truncated to 30 runes. No-op for
// unknown chats.
func (s *Service) Append(_ context.Context, chatID string, role model.Role, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.chats[chatID]
	if !ok {
		return
	}

	entry.log.append(role, content)
	if entry.log.len() == 1 && role == model.RoleUser {
		entry.meta.Title = truncateTitle(content)
	}
}

// Clear empties the chat's message log, leaving the title alone. No-op for
// unknown chats; idempotent.
func (s *Service) Clear(_ context.Context, chatID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, ok := s.chats[chatID]; ok {
		entry.log.clear()
	}
}

// SetFolder records the folder a chat is filed under. Membership itself is
// owned by the folder service; callers move the chat there first.
func (s *Service) SetFolder(_ context.Context, chatID, folderID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, ok := s.chats[chatID]; ok {
		entry.meta.FolderID = folderID
	}
}

// Get retrieves a chat snapshot including its messages.
func (s *Service) Get(_ context.Context, chatID string) (model.Chat, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.chats[chatID]
	if !ok {
		return model.Chat{}, false
	}
	return snapshotChat(entry), true
}

// ListByUser returns the user's chats keyed by id, restricted to folderID
// when it is non-empty.
func (s *Service) ListByUser(_ context.Context, userID int64, folderID string) map[string]model.Chat {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]model.Chat)
	for id, entry := range s.chats {
		if entry.meta.OwnerID != userID {
			continue
		}
		if folderID != "" && entry.meta.FolderID != folderID {
			continue
		}
		out[id] = snapshotChat(entry)
	}
	return out
}

func snapshotChat(entry *chatEntry) model.Chat {
	chat := entry.meta
	chat.Messages = entry.log.snapshot()
	return chat
}

func truncateTitle(content string) string {
	runes := []rune(content)
	if len(runes) <= titleLimit {
		return content
	}
	return string(runes[:titleLimit]) + "..."
}
