package folder

import (
	"context"
	"errors"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/nekoverse/nekobot/internal/model/conversation"
)

// MaxNameLength caps user-supplied folder names.
const MaxNameLength = 50

var ErrNameTooLong = errors.New("folder name exceeds 50 characters")

// Service owns folders and their chat membership. Every user gets a default
// folder lazily on first access; chat ids live in at most one folder.
type Service struct {
	mu          sync.RWMutex
	folders     map[string]*conversation.Folder
	userFolders map[int64][]string
	defaultName string
}

// NewService bootstraps the in-memory folder service. defaultName is the
// name given to each user's lazily created first folder.
func NewService(defaultName string) *Service {
	return &Service{
		folders:     make(map[string]*conversation.Folder),
		userFolders: make(map[int64][]string),
		defaultName: defaultName,
	}
}

// EnsureDefault creates the user's default folder if they have none yet and
// returns the id of their first folder. Idempotent under concurrent calls.
func (s *Service) EnsureDefault(_ context.Context, userID int64) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ensureDefaultLocked(userID)
}

func (s *Service) ensureDefaultLocked(userID int64) string {
	if ids := s.userFolders[userID]; len(ids) > 0 {
		return ids[0]
	}
	f := &conversation.Folder{
		ID:        uuid.NewString(),
		OwnerID:   userID,
		Name:      s.defaultName,
		CreatedAt: time.Now().UTC(),
	}
	s.folders[f.ID] = f
	s.userFolders[userID] = []string{f.ID}
	return f.ID
}

// List returns the user's folders in creation order, creating the default
// folder first if the user has none.
func (s *Service) List(_ context.Context, userID int64) []conversation.Folder {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ensureDefaultLocked(userID)

	ids := s.userFolders[userID]
	out := make([]conversation.Folder, 0, len(ids))
	for _, id := range ids {
		f, ok := s.folders[id]
		if !ok {
			continue
		}
		out = append(out, copyFolder(f))
	}
	return out
}

// Create adds a folder to the end of the user's folder list.
func (s *Service) Create(_ context.Context, userID int64, name string) (string, error) {
	if utf8.RuneCountInString(name) > MaxNameLength {
		return "", ErrNameTooLong
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f := &conversation.Folder{
		ID:        uuid.NewString(),
		OwnerID:   userID,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	s.folders[f.ID] = f
	s.userFolders[userID] = append(s.userFolders[userID], f.ID)
	return f.ID, nil
}

// Delete removes an empty folder owned by userID. It reports false without
// touching state when the folder is missing, foreign or non-empty.
func (s *Service) Delete(_ context.Context, userID int64, folderID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.folders[folderID]
	if !ok || f.OwnerID != userID || len(f.ChatIDs) > 0 {
		return false
	}

	delete(s.folders, folderID)
	ids := s.userFolders[userID]
	for i, id := range ids {
		if id == folderID {
			s.userFolders[userID] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	return true
}

// MoveChat files chatID under folderID, removing it from any folder that
// currently holds it. Reports false when the target folder does not exist.
func (s *Service) MoveChat(_ context.Context, chatID, folderID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	target, ok := s.folders[folderID]
	if !ok {
		return false
	}

	for _, f := range s.folders {
		for i, id := range f.ChatIDs {
			if id == chatID {
				f.ChatIDs = append(f.ChatIDs[:i], f.ChatIDs[i+1:]...)
				break
			}
		}
	}

	target.ChatIDs = append(target.ChatIDs, chatID)
	return true
}

// Get retrieves a folder snapshot by id.
func (s *Service) Get(_ context.Context, folderID string) (conversation.Folder, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.folders[folderID]
	if !ok {
		return conversation.Folder{}, false
	}
	return copyFolder(f), true
}

func copyFolder(f *conversation.Folder) conversation.Folder {
	out := *f
	out.ChatIDs = append([]string(nil), f.ChatIDs...)
	return out
}
