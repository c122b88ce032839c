package folder_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/nekoverse/nekobot/internal/service/folder"
)

func TestListCreatesDefaultFolder(t *testing.T) {
	svc := folder.NewService("Основные чаты")
	ctx := context.Background()

	folders := svc.List(ctx, 1)
	if len(folders) != 1 {
		t.Fatalf("expected 1 folder, got %d", len(folders))
	}
	if folders[0].Name != "Основные чаты" {
		t.Fatalf("unexpected default folder name: %s", folders[0].Name)
	}

	again := svc.List(ctx, 1)
	if len(again) != 1 {
		t.Fatalf("default folder created twice: %d folders", len(again))
	}
	if again[0].ID != folders[0].ID {
		t.Fatalf("default folder id changed between calls")
	}
}

func TestEnsureDefaultConcurrent(t *testing.T) {
	svc := folder.NewService("default")
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			svc.EnsureDefault(ctx, 7)
		}()
	}
	wg.Wait()

	if got := len(svc.List(ctx, 7)); got != 1 {
		t.Fatalf("expected exactly one default folder, got %d", got)
	}
}

func TestCreateAppendsAfterDefault(t *testing.T) {
	svc := folder.NewService("default")
	ctx := context.Background()

	svc.List(ctx, 1)
	if _, err := svc.Create(ctx, 1, "Work"); err != nil {
		t.Fatalf("Create err: %v", err)
	}

	folders := svc.List(ctx, 1)
	if len(folders) != 2 {
		t.Fatalf("expected 2 folders, got %d", len(folders))
	}
	if folders[1].Name != "Work" {
		t.Fatalf("expected Work as second folder, got %s", folders[1].Name)
	}
}

func TestCreateRejectsLongName(t *testing.T) {
	svc := folder.NewService("default")
	ctx := context.Background()

	name := strings.Repeat("я", 51)
	if _, err := svc.Create(ctx, 1, name); !errors.Is(err, folder.ErrNameTooLong) {
		t.Fatalf("expected ErrNameTooLong, got %v", err)
	}

	if got := len(svc.List(ctx, 1)); got != 1 {
		t.Fatalf("folder list changed after failed create: %d folders", got)
	}
}

func TestCreateAllowsFiftyRuneName(t *testing.T) {
	svc := folder.NewService("default")
	ctx := context.Background()

	if _, err := svc.Create(ctx, 1, strings.Repeat("я", 50)); err != nil {
		t.Fatalf("Create err: %v", err)
	}
}

func TestDeleteRules(t *testing.T) {
	svc := folder.NewService("default")
	ctx := context.Background()

	id, err := svc.Create(ctx, 1, "Work")
	if err != nil {
		t.Fatalf("Create err: %v", err)
	}

	if svc.Delete(ctx, 2, id) {
		t.Fatal("delete by non-owner should fail")
	}
	if svc.Delete(ctx, 1, "missing") {
		t.Fatal("delete of unknown folder should fail")
	}

	svc.MoveChat(ctx, "chat-1", id)
	if svc.Delete(ctx, 1, id) {
		t.Fatal("delete of non-empty folder should fail")
	}
	if f, ok := svc.Get(ctx, id); !ok || len(f.ChatIDs) != 1 {
		t.Fatalf("failed delete changed folder state: %+v", f)
	}

	other, _ := svc.Create(ctx, 1, "Other")
	svc.MoveChat(ctx, "chat-1", other)
	if !svc.Delete(ctx, 1, id) {
		t.Fatal("delete of empty owned folder should succeed")
	}
	if _, ok := svc.Get(ctx, id); ok {
		t.Fatal("deleted folder still present")
	}
}

func TestMoveChatSingleMembership(t *testing.T) {
	svc := folder.NewService("default")
	ctx := context.Background()

	a, _ := svc.Create(ctx, 1, "A")
	b, _ := svc.Create(ctx, 1, "B")

	if svc.MoveChat(ctx, "chat-1", "missing") {
		t.Fatal("move to unknown folder should fail")
	}

	svc.MoveChat(ctx, "chat-1", a)
	svc.MoveChat(ctx, "chat-1", b)
	svc.MoveChat(ctx, "chat-1", b)
	svc.MoveChat(ctx, "chat-1", a)

	memberships := 0
	for _, f := range svc.List(ctx, 1) {
		for _, id := range f.ChatIDs {
			if id == "chat-1" {
				memberships++
			}
		}
	}
	if memberships != 1 {
		t.Fatalf("chat belongs to %d folders, want 1", memberships)
	}

	fa, _ := svc.Get(ctx, a)
	if len(fa.ChatIDs) != 1 || fa.ChatIDs[0] != "chat-1" {
		t.Fatalf("chat should end up in folder A, got %v", fa.ChatIDs)
	}
}
