package objectstore

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"time"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
)

// OSSConfig — параметры подключения к Alibaba Cloud OSS.
type OSSConfig struct {
	Endpoint      string
	AccessKey     string
	SecretKey     string
	SecurityToken string
	Bucket        string
}

// ossBucket — используемое подмножество *oss.Bucket.
type ossBucket interface {
	PutObject(objectKey string, reader io.Reader, options ...oss.Option) error
	SignURL(objectKey string, method oss.HTTPMethod, expiredInSec int64, options ...oss.Option) (string, error)
}

// OSSStore — хранилище документов в Alibaba Cloud OSS.
type OSSStore struct {
	client     *oss.Client
	bucket     ossBucket
	bucketName string
}

// NewOSS создаёт клиент OSS и открывает bucket.
func NewOSS(cfg OSSConfig) (*OSSStore, error) {
	var (
		client *oss.Client
		err    error
	)
	if cfg.SecurityToken != "" {
		client, err = oss.New(cfg.Endpoint, cfg.AccessKey, cfg.SecretKey, oss.SecurityToken(cfg.SecurityToken))
	} else {
		client, err = oss.New(cfg.Endpoint, cfg.AccessKey, cfg.SecretKey)
	}
	if err != nil {
		return nil, fmt.Errorf("oss.New: %w", err)
	}

	bkt, err := client.Bucket(cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("client.Bucket: %w", err)
	}

	return &OSSStore{client: client, bucket: bkt, bucketName: cfg.Bucket}, nil
}

// Bucket возвращает имя bucket.
func (s *OSSStore) Bucket() string {
	return s.bucketName
}

// Put загружает объект. OSS перезаписывает существующий ключ.
func (s *OSSStore) Put(ctx context.Context, p string, data []byte, contentType string) (*Object, error) {
	key, err := CleanPath(p)
	if err != nil {
		return nil, err
	}

	opts := []oss.Option{
		oss.WithContext(ctx),
		oss.ContentType(contentType),
		oss.ContentDisposition("inline"),
	}
	if err := s.bucket.PutObject(key, bytes.NewReader(data), opts...); err != nil {
		return nil, fmt.Errorf("oss put %s: %w", key, err)
	}

	sum := sha256.Sum256(data)
	return &Object{
		Bucket:   s.bucketName,
		Path:     key,
		Size:     int64(len(data)),
		Checksum: hex.EncodeToString(sum[:]),
	}, nil
}

// SignedURL выдаёт подписанную GET-ссылку на объект.
func (s *OSSStore) SignedURL(_ context.Context, p string, ttl time.Duration) (string, error) {
	key, err := CleanPath(p)
	if err != nil {
		return "", err
	}
	signed, err := s.bucket.SignURL(key, oss.HTTPGet, int64(ttl/time.Second))
	if err != nil {
		return "", fmt.Errorf("oss sign %s: %w", key, err)
	}
	return signed, nil
}

// CheckReady проверяет существование bucket.
func (s *OSSStore) CheckReady() (string, string) {
	if s.client == nil {
		return StatusFail, "oss client not initialized"
	}
	ok, err := s.client.IsBucketExist(s.bucketName)
	if err != nil {
		return StatusFail, fmt.Sprintf("oss недоступен: %v", err)
	}
	if !ok {
		return StatusFail, fmt.Sprintf("bucket %s не найден", s.bucketName)
	}
	return StatusOK, "oss available"
}
