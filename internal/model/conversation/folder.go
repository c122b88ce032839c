package conversation

import "time"

// Folder groups chats for one user. ChatIDs holds membership in insertion
// order; a chat id appears in at most one folder at any time.
type Folder struct {
	ID        string    `json:"id"`
	OwnerID   int64     `json:"ownerId"`
	Name      string    `json:"name"`
	ChatIDs   []string  `json:"chatIds"`
	CreatedAt time.Time `json:"createdAt"`
}
