package conversation

import "time"

// Chat is one conversation owned by a single user. Messages are kept in
// arrival order; FolderID is empty while the chat is unfiled.
type Chat struct {
	ID        string    `json:"id"`
	OwnerID   int64     `json:"ownerId"`
	Title     string    `json:"title"`
	FolderID  string    `json:"folderId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	Messages  []Message `json:"messages"`
}
