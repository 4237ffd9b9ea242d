package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rafarisso/Cadastro-Cantina/internal/domain/model"
	"github.com/rafarisso/Cadastro-Cantina/internal/repository"
)

func TestAuthorizationService_DocumentLink(t *testing.T) {
	auths := newFakeAuthRepo()
	docs := &fakeDocRepo{}
	store := newMemStore()
	ctx := context.Background()

	svc := NewAuthorizationService(auths, docs, store, NewLinkCache(16, time.Hour), 7*24*time.Hour, discardLogger())

	// Нет документа
	if _, err := svc.DocumentLink(ctx, "auth-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("ожидали ErrNotFound, получили %v", err)
	}

	// Два документа — выигрывает самый новый
	for _, p := range []string{"52998224725/old.pdf", "52998224725/auth-1.pdf"} {
		if _, err := store.Put(ctx, p, []byte("%PDF-"), ContentTypePDF); err != nil {
			t.Fatalf("Put: %v", err)
		}
		if err := docs.Create(ctx, &model.Document{AuthorizationID: "auth-1", StorageBucket: store.Bucket(), StoragePath: p}); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	url, err := svc.DocumentLink(ctx, "auth-1")
	if err != nil {
		t.Fatalf("DocumentLink() ошибка: %v", err)
	}
	want := "https://files.example.com/cantina-termos/52998224725/auth-1.pdf?ttl=604800&n=1"
	if url != want {
		t.Errorf("DocumentLink() = %q, хотели %q", url, want)
	}

	// Повторный запрос обслуживается из кэша
	url2, err := svc.DocumentLink(ctx, "auth-1")
	if err != nil {
		t.Fatalf("DocumentLink() ошибка: %v", err)
	}
	if url2 != url || store.signs != 1 {
		t.Errorf("кэш не сработал: url2=%q signs=%d", url2, store.signs)
	}
}

func TestAuthorizationService_DocumentLinkErrors(t *testing.T) {
	ctx := context.Background()

	docs := &fakeDocRepo{latestErr: errors.New("db down")}
	svc := NewAuthorizationService(newFakeAuthRepo(), docs, newMemStore(), nil, time.Hour, discardLogger())
	var pe *PersistenceError
	if _, err := svc.DocumentLink(ctx, "auth-1"); !errors.As(err, &pe) {
		t.Errorf("ожидали PersistenceError, получили %v", err)
	}

	store := newMemStore()
	store.signErr = errors.New("sign failed")
	docs = &fakeDocRepo{}
	_ = docs.Create(ctx, &model.Document{AuthorizationID: "auth-1", StorageBucket: store.Bucket(), StoragePath: "x/auth-1.pdf"})
	svc = NewAuthorizationService(newFakeAuthRepo(), docs, store, nil, time.Hour, discardLogger())
	var se *StorageError
	if _, err := svc.DocumentLink(ctx, "auth-1"); !errors.As(err, &se) {
		t.Errorf("ожидали StorageError, получили %v", err)
	}
}

func TestAuthorizationService_List(t *testing.T) {
	auths := newFakeAuthRepo()
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_ = auths.Create(ctx, &model.Authorization{
			StudentID:  string(rune('a' + i)),
			AcceptedAt: fixedNow.Add(time.Duration(i) * time.Minute),
		})
	}

	svc := NewAuthorizationService(auths, &fakeDocRepo{}, newMemStore(), nil, time.Hour, discardLogger())
	items, total, err := svc.List(ctx, "maria")
	if err != nil {
		t.Fatalf("List() ошибка: %v", err)
	}
	if total != 3 || len(items) != 3 {
		t.Errorf("List() = %d, total=%d", len(items), total)
	}
	if auths.listQ != "maria" || auths.listLimit != repository.MaxListLimit {
		t.Errorf("репозиторий вызван с q=%q limit=%d", auths.listQ, auths.listLimit)
	}
	if !items[0].AcceptedAt.After(items[1].AcceptedAt) {
		t.Error("список не отсортирован по убыванию accepted_at")
	}
}
