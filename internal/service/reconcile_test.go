package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rafarisso/Cadastro-Cantina/internal/domain/model"
	"github.com/rafarisso/Cadastro-Cantina/internal/integrity"
)

func testBundle(id, signature string) *model.AuthorizationBundle {
	return &model.AuthorizationBundle{
		Authorization: &model.Authorization{
			ID:                id,
			GuardianID:        "guardian-1",
			StudentID:         "student-1",
			TermVersion:       "v1.0-2026-01-18",
			TermText:          "Eu autorizo.",
			SignatureDataURL:  signature,
			TermHashSHA256:    "abc123",
			AcceptedAt:        fixedNow.Truncate(time.Millisecond),
			AcceptedIP:        "203.0.113.7",
			AcceptedUserAgent: "test-agent",
			Status:            model.AuthorizationStatusActive,
		},
		Guardian: &model.Guardian{ID: "guardian-1", FullName: "Maria", CPF: "52998224725"},
		Student:  &model.Student{ID: "student-1", GuardianID: "guardian-1", FullName: "Joao", Period: model.PeriodMorning},
	}
}

type reconcileFixture struct {
	svc      *ReconcileService
	auths    *fakeAuthRepo
	docs     *fakeDocRepo
	audit    *fakeAuditRepo
	store    *memStore
	renderer *fakeRenderer
}

func newReconcileFixture(interval time.Duration) *reconcileFixture {
	f := &reconcileFixture{
		auths:    newFakeAuthRepo(),
		docs:     &fakeDocRepo{},
		audit:    &fakeAuditRepo{},
		store:    newMemStore(),
		renderer: &fakeRenderer{},
	}
	f.svc = NewReconcileService(f.auths, f.docs, f.audit, f.store, f.renderer,
		interval, 5*time.Minute, 50, discardLogger())
	return f
}

func TestReconcile_RunOnce(t *testing.T) {
	f := newReconcileFixture(0)
	f.auths.bundles["auth-1"] = testBundle("auth-1", testPNGDataURL)
	f.auths.bundles["auth-2"] = testBundle("auth-2", "data:text/plain;base64,AAAA")
	f.auths.withoutDoc = []string{"auth-1", "auth-2", "auth-missing"}

	res, err := f.svc.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce() ошибка: %v", err)
	}
	if res.Found != 3 || res.Completed != 1 || res.Failed != 2 {
		t.Errorf("результат = %+v, хотели found=3 completed=1 failed=2", res)
	}

	if len(f.docs.docs) != 1 {
		t.Fatalf("документов %d, хотели 1", len(f.docs.docs))
	}
	if got := f.docs.docs[0].StoragePath; got != "52998224725/auth-1.pdf" {
		t.Errorf("StoragePath = %q", got)
	}

	// PDF строится из сохранённых хэша и момента принятия
	doc := f.renderer.docs[0]
	if doc.TermHash != "abc123" || doc.AcceptedAt != integrity.FormatTimestamp(fixedNow) {
		t.Errorf("документ рендера: hash=%q accepted=%q", doc.TermHash, doc.AcceptedAt)
	}

	if len(f.audit.entries) != 1 || f.audit.entries[0].EventType != model.AuditEventDocumentReconciled {
		t.Fatalf("аудит = %+v", f.audit.entries)
	}
	meta := f.audit.entries[0].Meta
	stored := f.store.objects["52998224725/auth-1.pdf"]
	if meta["size"] != int64(len(stored)) {
		t.Errorf("size = %v, хотели %d", meta["size"], len(stored))
	}
	if sum, ok := meta["checksum_sha256"].(string); !ok || len(sum) != 64 {
		t.Errorf("checksum_sha256 = %v, хотели hex SHA-256", meta["checksum_sha256"])
	}
}

func TestReconcile_SkipsRevoked(t *testing.T) {
	f := newReconcileFixture(0)
	b := testBundle("auth-1", testPNGDataURL)
	b.Authorization.Status = model.AuthorizationStatusRevoked
	f.auths.bundles["auth-1"] = b

	if err := f.svc.ReconcileOne(context.Background(), "auth-1"); err == nil {
		t.Error("ReconcileOne() для отозванной авторизации должен вернуть ошибку")
	}
	if len(f.docs.docs) != 0 {
		t.Error("для отозванной авторизации документ не создаётся")
	}
}

func TestReconcile_StorageFailure(t *testing.T) {
	f := newReconcileFixture(0)
	f.auths.bundles["auth-1"] = testBundle("auth-1", testPNGDataURL)
	f.store.putErr = errors.New("oss down")

	err := f.svc.ReconcileOne(context.Background(), "auth-1")
	var se *StorageError
	if !errors.As(err, &se) || se.Step != StepUpload {
		t.Errorf("ожидали StorageError на шаге upload, получили %v", err)
	}
}

func TestReconcile_ListError(t *testing.T) {
	f := newReconcileFixture(0)
	f.auths.withoutDocErr = errors.New("db down")

	if _, err := f.svc.RunOnce(context.Background()); err == nil {
		t.Error("RunOnce() должен вернуть ошибку поиска")
	}
}

func TestReconcile_StartStop(t *testing.T) {
	// Нулевой интервал — сверка отключена, Stop не блокируется
	disabled := newReconcileFixture(0)
	disabled.svc.Start(context.Background())
	disabled.svc.Stop()

	f := newReconcileFixture(10 * time.Millisecond)
	f.auths.bundles["auth-1"] = testBundle("auth-1", testPNGDataURL)
	f.auths.withoutDoc = []string{"auth-1"}

	f.svc.Start(context.Background())
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		f.docs.mu.Lock()
		n := len(f.docs.docs)
		f.docs.mu.Unlock()
		if n > 0 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	f.svc.Stop()

	f.docs.mu.Lock()
	defer f.docs.mu.Unlock()
	if len(f.docs.docs) == 0 {
		t.Error("фоновая сверка не создала документ")
	}
}
