package assistant_test

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/nekoverse/nekobot/internal/llm"
	model "github.com/nekoverse/nekobot/internal/model/conversation"
	"github.com/nekoverse/nekobot/internal/service/assistant"
	"github.com/nekoverse/nekobot/internal/service/conversation"
	"github.com/nekoverse/nekobot/internal/service/folder"
)

type fakeCompleter struct {
	mu       sync.Mutex
	reply    string
	err      error
	calls    int
	payloads [][]llm.Message
}

func (f *fakeCompleter) ChatCompletion(_ context.Context, messages []llm.Message) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.payloads = append(f.payloads, messages)
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func newAssistant(completer assistant.Completer) (*assistant.Service, *conversation.Service, *folder.Service) {
	folders := folder.NewService(assistant.DefaultFolderName)
	chats := conversation.NewService(folders)
	svc := assistant.NewService(folders, chats, completer, assistant.DefaultSystemPrompt, assistant.DefaultTriggers())
	return svc, chats, folders
}

func TestFirstMessageBootstrapsEverything(t *testing.T) {
	completer := &fakeCompleter{reply: "Мяу! Чем могу помочь?"}
	svc, chats, folders := newAssistant(completer)
	ctx := context.Background()

	got := svc.HandleEvent(ctx, 1, assistant.EventText, "Привет")
	if got != "Мяу! Чем могу помочь?" {
		t.Fatalf("unexpected response: %s", got)
	}

	list := folders.List(ctx, 1)
	if len(list) != 1 || list[0].Name != assistant.DefaultFolderName {
		t.Fatalf("default folder not bootstrapped: %+v", list)
	}

	userChats := chats.ListByUser(ctx, 1, "")
	if len(userChats) != 1 {
		t.Fatalf("expected 1 chat, got %d", len(userChats))
	}
	for _, c := range userChats {
		if c.Title != "Привет" {
			t.Fatalf("title not set from first message: %s", c.Title)
		}
		if len(c.Messages) != 2 {
			t.Fatalf("expected user+assistant turns, got %d", len(c.Messages))
		}
		if c.Messages[0].Role != model.RoleUser || c.Messages[1].Role != model.RoleAssistant {
			t.Fatalf("unexpected roles: %s, %s", c.Messages[0].Role, c.Messages[1].Role)
		}
	}

	if len(completer.payloads) != 1 {
		t.Fatalf("expected 1 completion call, got %d", len(completer.payloads))
	}
	payload := completer.payloads[0]
	if len(payload) != 2 {
		t.Fatalf("expected [system, user] payload, got %d entries", len(payload))
	}
	if payload[0].Role != "system" || payload[1].Role != "user" || payload[1].Content != "Привет" {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

func TestHistoryCarriedIntoNextRequest(t *testing.T) {
	completer := &fakeCompleter{reply: "ответ"}
	svc, _, _ := newAssistant(completer)
	ctx := context.Background()

	svc.HandleEvent(ctx, 1, assistant.EventText, "первый")
	svc.HandleEvent(ctx, 1, assistant.EventText, "второй")

	payload := completer.payloads[1]
	// system + user + assistant + new user turn
	if len(payload) != 4 {
		t.Fatalf("expected 4 payload entries, got %d", len(payload))
	}
	if payload[1].Content != "первый" || payload[2].Content != "ответ" || payload[3].Content != "второй" {
		t.Fatalf("history out of order: %+v", payload)
	}
}

func TestCreateFolderDialog(t *testing.T) {
	completer := &fakeCompleter{reply: "ответ"}
	svc, _, folders := newAssistant(completer)
	ctx := context.Background()

	prompt := svc.HandleEvent(ctx, 1, assistant.EventCreateFolder, "")
	if !strings.Contains(prompt, "Введите название") {
		t.Fatalf("unexpected prompt: %s", prompt)
	}

	got := svc.HandleEvent(ctx, 1, assistant.EventText, "Work")
	if !strings.Contains(got, "Work") || !strings.Contains(got, "создана") {
		t.Fatalf("unexpected create response: %s", got)
	}

	list := folders.List(ctx, 1)
	if len(list) != 2 || list[1].Name != "Work" {
		t.Fatalf("Work not second folder: %+v", list)
	}

	if completer.calls != 0 {
		t.Fatalf("folder name consumed by the model: %d calls", completer.calls)
	}
}

func TestCreateFolderDialogRejectsLongName(t *testing.T) {
	completer := &fakeCompleter{reply: "ответ"}
	svc, _, folders := newAssistant(completer)
	ctx := context.Background()

	svc.HandleEvent(ctx, 1, assistant.EventCreateFolder, "")
	got := svc.HandleEvent(ctx, 1, assistant.EventText, strings.Repeat("д", 51))
	if !strings.Contains(got, "слишком длинное") {
		t.Fatalf("unexpected response: %s", got)
	}

	if list := folders.List(ctx, 1); len(list) != 1 {
		t.Fatalf("folder list changed: %+v", list)
	}

	// The prompt was single-shot; the next text goes to the model.
	svc.HandleEvent(ctx, 1, assistant.EventText, "обычное сообщение")
	if completer.calls != 1 {
		t.Fatalf("expected the follow-up text to reach the model, calls=%d", completer.calls)
	}
}

func TestListChatsSelection(t *testing.T) {
	completer := &fakeCompleter{reply: "ответ"}
	svc, _, _ := newAssistant(completer)
	ctx := context.Background()

	svc.HandleEvent(ctx, 1, assistant.EventText, "Привет")

	prompt := svc.HandleEvent(ctx, 1, assistant.EventListChats, "")
	if !strings.Contains(prompt, "Ваши папки") || !strings.Contains(prompt, "номер папки") {
		t.Fatalf("unexpected prompt: %s", prompt)
	}

	got := svc.HandleEvent(ctx, 1, assistant.EventText, "1")
	if !strings.Contains(got, "Привет") {
		t.Fatalf("chat listing missing chat title: %s", got)
	}
	if !strings.Contains(got, "🔹") {
		t.Fatalf("current chat marker missing: %s", got)
	}
}

func TestListChatsSelectionBadInput(t *testing.T) {
	completer := &fakeCompleter{reply: "ответ"}
	svc, _, _ := newAssistant(completer)
	ctx := context.Background()

	svc.HandleEvent(ctx, 1, assistant.EventListChats, "")
	if got := svc.HandleEvent(ctx, 1, assistant.EventText, "не число"); !strings.Contains(got, "Введите номер") {
		t.Fatalf("unexpected response to non-numeric input: %s", got)
	}

	svc.HandleEvent(ctx, 1, assistant.EventListChats, "")
	if got := svc.HandleEvent(ctx, 1, assistant.EventText, "99"); !strings.Contains(got, "Неверный номер") {
		t.Fatalf("unexpected response to out-of-range input: %s", got)
	}

	// Both prompts were single-shot; this one goes to the model.
	svc.HandleEvent(ctx, 1, assistant.EventText, "привет")
	if completer.calls != 1 {
		t.Fatalf("expected 1 model call after failed selections, got %d", completer.calls)
	}
}

func TestCommandOverridesPendingPrompt(t *testing.T) {
	completer := &fakeCompleter{reply: "ответ"}
	svc, _, folders := newAssistant(completer)
	ctx := context.Background()

	svc.HandleEvent(ctx, 1, assistant.EventCreateFolder, "")
	svc.HandleEvent(ctx, 1, assistant.EventNewChat, "")

	// The abandoned prompt must not swallow this as a folder name.
	svc.HandleEvent(ctx, 1, assistant.EventText, "просто текст")
	if completer.calls != 1 {
		t.Fatalf("text after override should reach the model, calls=%d", completer.calls)
	}
	if list := folders.List(ctx, 1); len(list) != 1 {
		t.Fatalf("abandoned prompt created a folder: %+v", list)
	}
}

func TestSpecialTriggerShortCircuits(t *testing.T) {
	completer := &fakeCompleter{reply: "ответ"}
	svc, chats, _ := newAssistant(completer)
	ctx := context.Background()

	got := svc.HandleEvent(ctx, 1, assistant.EventText, "Кто такой TATO Qardava?")
	if got != "სამშობლოს ვიცავ" {
		t.Fatalf("unexpected canned reply: %s", got)
	}
	if completer.calls != 0 {
		t.Fatalf("trigger must not reach the model, calls=%d", completer.calls)
	}
	if stored := chats.ListByUser(ctx, 1, ""); len(stored) != 0 {
		t.Fatalf("trigger must not create or store anything, got %d chats", len(stored))
	}
}

func TestCompletionTimeoutKeepsHistoryIntact(t *testing.T) {
	completer := &fakeCompleter{reply: "ок"}
	svc, chats, _ := newAssistant(completer)
	ctx := context.Background()

	svc.HandleEvent(ctx, 1, assistant.EventText, "первое")
	chatID, _ := chats.CurrentIfAny(ctx, 1)
	before := len(chats.Messages(ctx, chatID))

	completer.err = llm.ErrTimeout
	got := svc.HandleEvent(ctx, 1, assistant.EventText, "второе")
	if !strings.Contains(got, "Таймаут") {
		t.Fatalf("unexpected timeout advisory: %s", got)
	}

	if after := len(chats.Messages(ctx, chatID)); after != before {
		t.Fatalf("failed call mutated history: %d -> %d", before, after)
	}
}

func TestCompletionErrorAdvisories(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{llm.ErrRateLimited, "Слишком много запросов"},
		{llm.ErrConnection, "Ошибка соединения"},
		{&llm.StatusError{Code: 500, Message: "internal"}, "Ошибка API: 500"},
	}

	for _, tc := range cases {
		completer := &fakeCompleter{err: tc.err}
		svc, _, _ := newAssistant(completer)

		got := svc.HandleEvent(context.Background(), 1, assistant.EventText, "привет")
		if !strings.Contains(got, tc.want) {
			t.Fatalf("advisory for %v = %q, want substring %q", tc.err, got, tc.want)
		}
	}
}

func TestClearChatEvent(t *testing.T) {
	completer := &fakeCompleter{reply: "ответ"}
	svc, chats, _ := newAssistant(completer)
	ctx := context.Background()

	if got := svc.HandleEvent(ctx, 1, assistant.EventClearChat, ""); !strings.Contains(got, "не найден") {
		t.Fatalf("clear with no chat should advise not found, got: %s", got)
	}

	svc.HandleEvent(ctx, 1, assistant.EventText, "Привет")
	chatID, _ := chats.CurrentIfAny(ctx, 1)

	if got := svc.HandleEvent(ctx, 1, assistant.EventClearChat, ""); !strings.Contains(got, "очищен") {
		t.Fatalf("unexpected clear response: %s", got)
	}
	if msgs := chats.Messages(ctx, chatID); len(msgs) != 0 {
		t.Fatalf("chat not cleared: %d messages", len(msgs))
	}
}

func TestConcurrentFirstMessages(t *testing.T) {
	completer := &fakeCompleter{reply: "ответ"}
	svc, chats, folders := newAssistant(completer)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			svc.HandleEvent(ctx, 1, assistant.EventText, "Привет")
		}()
	}
	wg.Wait()

	if got := len(folders.List(ctx, 1)); got != 1 {
		t.Fatalf("expected exactly one default folder, got %d", got)
	}
	if got := len(chats.ListByUser(ctx, 1, "")); got != 1 {
		t.Fatalf("expected exactly one chat, got %d", got)
	}
}
