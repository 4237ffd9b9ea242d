package objectstore

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
)

func newTestFS(t *testing.T) *FSStore {
	t.Helper()
	s, err := NewFS(t.TempDir(), "cantina-termos", "https://cantina.example.com/", []byte("test-signing-key"))
	if err != nil {
		t.Fatalf("ошибка создания FSStore: %v", err)
	}
	return s
}

func TestCleanPath(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"52998224725/abc.pdf", "52998224725/abc.pdf", false},
		{"a/./b.pdf", "a/b.pdf", false},
		{"", "", true},
		{"/etc/passwd", "", true},
		{"../secret.pdf", "", true},
		{"a/../../b.pdf", "", true},
		{"..", "", true},
		{"a\\b.pdf", "", true},
	}
	for _, tt := range tests {
		got, err := CleanPath(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("CleanPath(%q) ошибка = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("CleanPath(%q) = %q, хотели %q", tt.in, got, tt.want)
		}
	}
}

func TestDocumentPath(t *testing.T) {
	if got := DocumentPath("52998224725", "id-1"); got != "52998224725/id-1.pdf" {
		t.Errorf("DocumentPath() = %q, хотели %q", got, "52998224725/id-1.pdf")
	}
}

// TestNewFS_CreatesDirectory проверяет создание директории bucket.
func TestNewFS_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")

	if _, err := NewFS(dir, "docs", "", []byte("k")); err != nil {
		t.Fatalf("ошибка создания FSStore: %v", err)
	}
	info, err := os.Stat(filepath.Join(dir, "docs"))
	if err != nil {
		t.Fatalf("директория не создана: %v", err)
	}
	if !info.IsDir() {
		t.Fatal("путь не является директорией")
	}
}

func TestNewFS_RequiresSigningKey(t *testing.T) {
	if _, err := NewFS(t.TempDir(), "docs", "", nil); err == nil {
		t.Error("ожидалась ошибка без ключа подписи")
	}
}

// TestFSStore_Put проверяет запись с подсчётом SHA-256 и перезапись.
func TestFSStore_Put(t *testing.T) {
	s := newTestFS(t)
	ctx := context.Background()

	content := []byte("%PDF-1.3 первая версия")
	obj, err := s.Put(ctx, "52998224725/a1.pdf", content, "application/pdf")
	if err != nil {
		t.Fatalf("ошибка сохранения: %v", err)
	}

	expected := sha256.Sum256(content)
	if obj.Checksum != hex.EncodeToString(expected[:]) {
		t.Errorf("checksum: ожидалось %x, получено %s", expected, obj.Checksum)
	}
	if obj.Size != int64(len(content)) {
		t.Errorf("размер: ожидалось %d, получено %d", len(content), obj.Size)
	}
	if obj.Bucket != "cantina-termos" || obj.Path != "52998224725/a1.pdf" {
		t.Errorf("объект %s/%s, хотели cantina-termos/52998224725/a1.pdf", obj.Bucket, obj.Path)
	}

	// Перезапись существующего объекта
	updated := []byte("%PDF-1.3 вторая версия")
	if _, err := s.Put(ctx, "52998224725/a1.pdf", updated, "application/pdf"); err != nil {
		t.Fatalf("ошибка перезаписи: %v", err)
	}

	f, err := s.Open("52998224725/a1.pdf")
	if err != nil {
		t.Fatalf("ошибка открытия: %v", err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		t.Fatalf("ошибка чтения: %v", err)
	}
	if !bytes.Equal(data, updated) {
		t.Error("содержимое не перезаписано")
	}

	// temp файлы удалены после сохранения
	assertOnlyFile(t, filepath.Dir(s.fullPath("52998224725/a1.pdf")), "a1.pdf")
}

func assertOnlyFile(t *testing.T, dir, name string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != name {
		var names []string
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("файлы в директории %v, хотели только %s", names, name)
	}
}

func TestFSStore_PutConcurrentSamePath(t *testing.T) {
	s := newTestFS(t)
	ctx := context.Background()
	const writers = 8

	versions := make(map[string]bool, writers)
	payloads := make([][]byte, writers)
	for i := range payloads {
		payloads[i] = []byte(fmt.Sprintf("%%PDF-1.3 версия %d %s", i, strings.Repeat("x", 64*1024)))
		versions[string(payloads[i])] = true
	}

	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for _, data := range payloads {
		wg.Add(1)
		go func(data []byte) {
			defer wg.Done()
			if _, err := s.Put(ctx, "52998224725/a1.pdf", data, "application/pdf"); err != nil {
				errs <- err
			}
		}(data)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("параллельная запись: %v", err)
	}

	f, err := s.Open("52998224725/a1.pdf")
	if err != nil {
		t.Fatalf("ошибка открытия: %v", err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		t.Fatalf("ошибка чтения: %v", err)
	}
	if !versions[string(data)] {
		t.Error("итоговый файл не совпадает ни с одной записанной версией")
	}

	assertOnlyFile(t, filepath.Dir(s.fullPath("52998224725/a1.pdf")), "a1.pdf")
}

func TestFSStore_PutRejectsTraversal(t *testing.T) {
	s := newTestFS(t)
	_, err := s.Put(context.Background(), "../escape.pdf", []byte("x"), "application/pdf")
	if !errors.Is(err, ErrInvalidPath) {
		t.Errorf("ошибка %v, хотели ErrInvalidPath", err)
	}
}

func TestFSStore_PutCancelledContext(t *testing.T) {
	s := newTestFS(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Put(ctx, "a/b.pdf", []byte("x"), "application/pdf"); !errors.Is(err, context.Canceled) {
		t.Errorf("ошибка %v, хотели context.Canceled", err)
	}
}

func TestFSStore_OpenNotFound(t *testing.T) {
	s := newTestFS(t)
	if _, err := s.Open("nonexistent.pdf"); !errors.Is(err, ErrNotFound) {
		t.Errorf("ошибка %v, хотели ErrNotFound", err)
	}
}

// TestFSStore_SignedURL проверяет выдачу и проверку подписанной ссылки.
func TestFSStore_SignedURL(t *testing.T) {
	s := newTestFS(t)
	ctx := context.Background()

	if _, err := s.Put(ctx, "52998224725/a1.pdf", []byte("pdf"), "application/pdf"); err != nil {
		t.Fatalf("ошибка сохранения: %v", err)
	}

	link, err := s.SignedURL(ctx, "52998224725/a1.pdf", 7*24*time.Hour)
	if err != nil {
		t.Fatalf("ошибка подписи: %v", err)
	}
	if !strings.HasPrefix(link, "https://cantina.example.com"+DownloadPath+"?token=") {
		t.Fatalf("ссылка %q имеет неверный формат", link)
	}

	u, err := url.Parse(link)
	if err != nil {
		t.Fatalf("ссылка не разбирается: %v", err)
	}
	p, err := s.VerifyToken(u.Query().Get("token"))
	if err != nil {
		t.Fatalf("ошибка проверки токена: %v", err)
	}
	if p != "52998224725/a1.pdf" {
		t.Errorf("путь = %q, хотели %q", p, "52998224725/a1.pdf")
	}
}

func TestFSStore_SignedURLMissingObject(t *testing.T) {
	s := newTestFS(t)
	if _, err := s.SignedURL(context.Background(), "missing.pdf", time.Hour); !errors.Is(err, ErrNotFound) {
		t.Errorf("ошибка %v, хотели ErrNotFound", err)
	}
}

func TestFSStore_VerifyTokenRejects(t *testing.T) {
	s := newTestFS(t)
	ctx := context.Background()
	if _, err := s.Put(ctx, "a/b.pdf", []byte("pdf"), "application/pdf"); err != nil {
		t.Fatalf("ошибка сохранения: %v", err)
	}

	// Истёкший токен
	s.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	link, err := s.SignedURL(ctx, "a/b.pdf", time.Hour)
	if err != nil {
		t.Fatalf("ошибка подписи: %v", err)
	}
	s.now = time.Now
	u, _ := url.Parse(link)
	if _, err := s.VerifyToken(u.Query().Get("token")); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("истёкший токен: ошибка %v, хотели ErrInvalidToken", err)
	}

	// Токен, подписанный другим ключом
	other, err := NewFS(t.TempDir(), "cantina-termos", "", []byte("other-key"))
	if err != nil {
		t.Fatalf("ошибка создания FSStore: %v", err)
	}
	if _, err := other.Put(ctx, "a/b.pdf", []byte("pdf"), "application/pdf"); err != nil {
		t.Fatalf("ошибка сохранения: %v", err)
	}
	link, err = other.SignedURL(ctx, "a/b.pdf", time.Hour)
	if err != nil {
		t.Fatalf("ошибка подписи: %v", err)
	}
	u, _ = url.Parse(link)
	if _, err := s.VerifyToken(u.Query().Get("token")); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("чужой ключ: ошибка %v, хотели ErrInvalidToken", err)
	}

	if _, err := s.VerifyToken("garbage"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("мусор: ошибка %v, хотели ErrInvalidToken", err)
	}
}

func TestFSStore_CheckReady(t *testing.T) {
	s := newTestFS(t)
	if status, msg := s.CheckReady(); status != StatusOK {
		t.Errorf("CheckReady() = %s (%s), хотели ok", status, msg)
	}

	if err := os.RemoveAll(filepath.Join(s.dataDir, s.bucket)); err != nil {
		t.Fatalf("ошибка удаления директории: %v", err)
	}
	if status, _ := s.CheckReady(); status != StatusFail {
		t.Errorf("CheckReady() без директории = %s, хотели fail", status)
	}
}

// fakeBucket — подмена *oss.Bucket.
type fakeBucket struct {
	putKey     string
	putData    []byte
	putOptions int
	putErr     error

	signKey     string
	signMethod  oss.HTTPMethod
	signSeconds int64
}

func (b *fakeBucket) PutObject(key string, r io.Reader, options ...oss.Option) error {
	if b.putErr != nil {
		return b.putErr
	}
	b.putKey = key
	b.putData, _ = io.ReadAll(r)
	b.putOptions = len(options)
	return nil
}

func (b *fakeBucket) SignURL(key string, method oss.HTTPMethod, expiredInSec int64, _ ...oss.Option) (string, error) {
	b.signKey = key
	b.signMethod = method
	b.signSeconds = expiredInSec
	return "https://bucket.oss.example.com/" + key + "?Signature=x", nil
}

func TestOSSStore_PutAndSign(t *testing.T) {
	fb := &fakeBucket{}
	s := &OSSStore{bucket: fb, bucketName: "cantina-termos"}
	ctx := context.Background()

	obj, err := s.Put(ctx, "52998224725/a1.pdf", []byte("pdf"), "application/pdf")
	if err != nil {
		t.Fatalf("Put() ошибка: %v", err)
	}
	if fb.putKey != "52998224725/a1.pdf" || string(fb.putData) != "pdf" {
		t.Errorf("PutObject(%q, %q), хотели 52998224725/a1.pdf, pdf", fb.putKey, fb.putData)
	}
	if fb.putOptions != 3 {
		t.Errorf("опций PutObject %d, хотели 3", fb.putOptions)
	}
	if obj.Bucket != "cantina-termos" {
		t.Errorf("Bucket = %q, хотели cantina-termos", obj.Bucket)
	}

	link, err := s.SignedURL(ctx, "52998224725/a1.pdf", 7*24*time.Hour)
	if err != nil {
		t.Fatalf("SignedURL() ошибка: %v", err)
	}
	if fb.signMethod != oss.HTTPGet {
		t.Errorf("метод %v, хотели GET", fb.signMethod)
	}
	if fb.signSeconds != 7*24*3600 {
		t.Errorf("срок %d с, хотели %d", fb.signSeconds, 7*24*3600)
	}
	if !strings.HasPrefix(link, "https://bucket.oss.example.com/52998224725/a1.pdf") {
		t.Errorf("ссылка %q", link)
	}
}

func TestOSSStore_PutError(t *testing.T) {
	s := &OSSStore{bucket: &fakeBucket{putErr: errors.New("boom")}, bucketName: "b"}
	if _, err := s.Put(context.Background(), "a.pdf", []byte("x"), "application/pdf"); err == nil {
		t.Error("ожидалась ошибка загрузки")
	}
}

func TestOSSStore_CheckReadyWithoutClient(t *testing.T) {
	s := &OSSStore{bucket: &fakeBucket{}, bucketName: "b"}
	if status, _ := s.CheckReady(); status != StatusFail {
		t.Errorf("CheckReady() = %s, хотели fail", status)
	}
}
