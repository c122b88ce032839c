package conversation

import (
	"time"

	model "github.com/nekoverse/nekobot/internal/model/conversation"
)

// history is the append-only message log of one chat. Callers hold the
// service lock; history itself carries no synchronization.
type history struct {
	msgs []model.Message
}

func (h *history) append(role model.Role, content string) model.Message {
	m := model.Message{
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UTC(),
	}
	h.msgs = append(h.msgs, m)
	return m
}

func (h *history) clear() {
	h.msgs = nil
}

func (h *history) len() int {
	return len(h.msgs)
}

// snapshot copies the log so callers can read it outside the lock.
func (h *history) snapshot() []model.Message {
	out := make([]model.Message, len(h.msgs))
	copy(out, h.msgs)
	return out
}
