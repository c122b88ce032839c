package assistant

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/nekoverse/nekobot/internal/llm"
	model "github.com/nekoverse/nekobot/internal/model/conversation"
)

// DefaultSystemPrompt is the NekoVerse persona instruction prepended to
// every completion request.
const DefaultSystemPrompt = `Ты - NekoVerse, дружелюбный и умный AI помощник. Твое имя NekoVerse.
Ты общаешься вежливо, помогаешь пользователям и имеешь свою индивидуальность.
Отвечай на том же языке, на котором пишет пользователь. Будь креативным и engaging в общении.`

// DefaultFolderName names the folder created lazily for every user.
const DefaultFolderName = "Основные чаты"

const (
	replyWelcome = `🐱 *Добро пожаловать в NekoVerse!*

Я ваш персональный AI помощник с системой папок и чатов!

*✨ Возможности:*
• Умные и креативные ответы
• Система папок для организации чатов
• Неограниченное количество чатов
• Сохранение истории переписки

*🔧 Основные команды:*
/start - начать общение
/new - новый чат
/clear - очистить текущий чат
/folders - управление папками
/chats - список чатов`

	replyNewChat        = "🆕 Новый чат создан! Можете начать новую беседу."
	replyChatCleared    = "🗑️ Текущий чат очищен!"
	replyChatNotFound   = "❌ Чат не найден"
	replyNameTooLong    = "❌ Название папки слишком длинное (макс. 50 символов)"
	replyFolderPrompt   = "📝 Введите название для новой папки:"
	replyChatsPrompt    = "📋 Введите номер папки для просмотра чатов:"
	replyBadFolderIndex = "❌ Неверный номер папки"
	replyNotANumber     = "❌ Введите номер папки"
	replyNoFolders      = "📂 У вас пока нет папок"
	replyUnknownEvent   = "❌ Неизвестная команда"
)

func replyFolderCreated(name string) string {
	return fmt.Sprintf("✅ Папка '%s' создана!", name)
}

// formatFolders renders the numbered folder list shown for both the
// folders overview and the chats-in-folder prompt.
func formatFolders(folders []model.Folder) string {
	if len(folders) == 0 {
		return replyNoFolders
	}

	var b strings.Builder
	b.WriteString("📂 Ваши папки:\n\n")
	for i, f := range folders {
		fmt.Fprintf(&b, "%d. %s (%d чатов)\n", i+1, f.Name, len(f.ChatIDs))
	}
	return b.String()
}

// formatFolderChats renders the chats filed under one folder, marking the
// user's current chat. Chats are listed in creation order.
func formatFolderChats(folderName string, chats map[string]model.Chat, currentChatID string) string {
	if len(chats) == 0 {
		return fmt.Sprintf("📁 Папка '%s' пуста", folderName)
	}

	ordered := make([]model.Chat, 0, len(chats))
	for _, c := range chats {
		ordered = append(ordered, c)
	}
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
	})

	var b strings.Builder
	fmt.Fprintf(&b, "📁 Папка: %s\n\n", folderName)
	for i, c := range ordered {
		marker := ""
		if c.ID == currentChatID {
			marker = " 🔹"
		}
		fmt.Fprintf(&b, "%d. %s (%d сообщ.)%s\n", i+1, c.Title, len(c.Messages), marker)
	}
	return b.String()
}

// advisoryFor maps a completion failure to the short user-facing string.
func advisoryFor(err error) string {
	switch {
	case errors.Is(err, llm.ErrRateLimited):
		return "⚠️ Слишком много запросов. Подождите немного..."
	case errors.Is(err, llm.ErrTimeout):
		return "⏰ Таймаут запроса. Попробуйте еще раз."
	case errors.Is(err, llm.ErrConnection):
		return "🔌 Ошибка соединения. Проверьте интернет."
	}

	var statusErr *llm.StatusError
	if errors.As(err, &statusErr) {
		msg := fmt.Sprintf("❌ Ошибка API: %d", statusErr.Code)
		if statusErr.Message != "" {
			msg += "\n" + statusErr.Message
		}
		return msg
	}
	return fmt.Sprintf("❌ Неожиданная ошибка: %s", err)
}
