package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/rafarisso/Cadastro-Cantina/internal/domain/model"
	"github.com/rafarisso/Cadastro-Cantina/internal/objectstore"
	"github.com/rafarisso/Cadastro-Cantina/internal/render"
	"github.com/rafarisso/Cadastro-Cantina/internal/repository"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- IdentityResolver ---

type fakeIdentity struct {
	mu        sync.Mutex
	guardians map[string]string
	students  map[string]string
	err       error
	calls     int
}

func newFakeIdentity() *fakeIdentity {
	return &fakeIdentity{guardians: map[string]string{}, students: map[string]string{}}
}

func (f *fakeIdentity) Resolve(_ context.Context, g *model.Guardian, s *model.Student) (string, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return "", "", f.err
	}

	gid, ok := f.guardians[g.CPF]
	if !ok {
		gid = fmt.Sprintf("guardian-%d", len(f.guardians)+1)
		f.guardians[g.CPF] = gid
	}
	g.ID = gid
	s.GuardianID = gid

	key := gid + "|" + s.FullName + "|" + s.ClassRoom + "|" + s.Period
	sid, ok := f.students[key]
	if !ok {
		sid = fmt.Sprintf("student-%d", len(f.students)+1)
		f.students[key] = sid
	}
	s.ID = sid
	return gid, sid, nil
}

// --- AuthorizationRepository ---

type fakeAuthRepo struct {
	mu      sync.Mutex
	byID    map[string]*model.Authorization
	bundles map[string]*model.AuthorizationBundle
	// findActiveMiss — FindActiveByStudent всегда "не находит" (гонка)
	findActiveMiss bool
	findErr        error
	createErr      error
	listQ          string
	listLimit      int
	withoutDoc     []string
	withoutDocErr  error
}

func newFakeAuthRepo() *fakeAuthRepo {
	return &fakeAuthRepo{
		byID:    map[string]*model.Authorization{},
		bundles: map[string]*model.AuthorizationBundle{},
	}
}

func (f *fakeAuthRepo) FindActiveByStudent(_ context.Context, studentID string) (*model.Authorization, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	if f.findActiveMiss {
		return nil, repository.ErrNotFound
	}
	for _, a := range f.byID {
		if a.StudentID == studentID && a.Status == model.AuthorizationStatusActive {
			return a, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeAuthRepo) Create(_ context.Context, a *model.Authorization) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	for _, existing := range f.byID {
		if existing.StudentID == a.StudentID && existing.Status == model.AuthorizationStatusActive {
			return fmt.Errorf("%w: дубликат", repository.ErrConflict)
		}
	}
	a.ID = fmt.Sprintf("auth-%d", len(f.byID)+1)
	a.Status = model.AuthorizationStatusActive
	a.CreatedAt = time.Now()
	cp := *a
	f.byID[a.ID] = &cp
	return nil
}

func (f *fakeAuthRepo) List(_ context.Context, q string, limit int) ([]*model.AuthorizationListItem, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listQ, f.listLimit = q, limit

	var items []*model.AuthorizationListItem
	for _, a := range f.byID {
		items = append(items, &model.AuthorizationListItem{ID: a.ID, AcceptedAt: a.AcceptedAt, Status: a.Status})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].AcceptedAt.After(items[j].AcceptedAt) })
	return items, len(items), nil
}

func (f *fakeAuthRepo) ListWithoutDocument(_ context.Context, _ time.Time, limit int) ([]string, error) {
	if f.withoutDocErr != nil {
		return nil, f.withoutDocErr
	}
	if len(f.withoutDoc) > limit {
		return f.withoutDoc[:limit], nil
	}
	return f.withoutDoc, nil
}

func (f *fakeAuthRepo) GetBundle(_ context.Context, id string) (*model.AuthorizationBundle, error) {
	b, ok := f.bundles[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return b, nil
}

func (f *fakeAuthRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.byID)
}

// --- DocumentRepository ---

type fakeDocRepo struct {
	mu        sync.Mutex
	docs      []*model.Document
	createErr error
	latestErr error
}

func (f *fakeDocRepo) Create(_ context.Context, d *model.Document) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	d.ID = fmt.Sprintf("doc-%d", len(f.docs)+1)
	d.CreatedAt = time.Now()
	f.docs = append(f.docs, d)
	return nil
}

func (f *fakeDocRepo) LatestByAuthorization(_ context.Context, authorizationID string) (*model.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.latestErr != nil {
		return nil, f.latestErr
	}
	for i := len(f.docs) - 1; i >= 0; i-- {
		if f.docs[i].AuthorizationID == authorizationID {
			return f.docs[i], nil
		}
	}
	return nil, repository.ErrNotFound
}

// --- AuditLogRepository ---

type fakeAuditRepo struct {
	mu      sync.Mutex
	entries []*model.AuditLog
	err     error
}

func (f *fakeAuditRepo) Append(_ context.Context, e *model.AuditLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.entries = append(f.entries, e)
	return nil
}

// --- objectstore.Store ---

type memStore struct {
	mu      sync.Mutex
	bucket  string
	objects map[string][]byte
	putErr  error
	signErr error
	signs   int
}

func newMemStore() *memStore {
	return &memStore{bucket: "cantina-termos", objects: map[string][]byte{}}
}

func (m *memStore) Bucket() string { return m.bucket }

func (m *memStore) Put(_ context.Context, p string, data []byte, _ string) (*objectstore.Object, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.putErr != nil {
		return nil, m.putErr
	}
	m.objects[p] = append([]byte(nil), data...)
	sum := sha256.Sum256(data)
	return &objectstore.Object{Bucket: m.bucket, Path: p, Size: int64(len(data)), Checksum: hex.EncodeToString(sum[:])}, nil
}

func (m *memStore) SignedURL(_ context.Context, p string, ttl time.Duration) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.signErr != nil {
		return "", m.signErr
	}
	if _, ok := m.objects[p]; !ok {
		return "", objectstore.ErrNotFound
	}
	m.signs++
	return fmt.Sprintf("https://files.example.com/%s/%s?ttl=%d&n=%d", m.bucket, p, int(ttl.Seconds()), m.signs), nil
}

func (m *memStore) CheckReady() (string, string) {
	return objectstore.StatusOK, "ok"
}

// --- DocumentRenderer ---

type fakeRenderer struct {
	mu   sync.Mutex
	docs []*render.Document
	err  error
}

func (f *fakeRenderer) Render(doc *render.Document, _ time.Time) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.docs = append(f.docs, doc)
	return []byte("%PDF-fake " + doc.TermHash), nil
}
