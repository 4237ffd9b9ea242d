package service

import (
	"context"
	"time"

	"github.com/rafarisso/Cadastro-Cantina/internal/domain/model"
	"github.com/rafarisso/Cadastro-Cantina/internal/objectstore"
	"github.com/rafarisso/Cadastro-Cantina/internal/repository"
)

// ContentTypePDF — MIME-тип загружаемых документов.
const ContentTypePDF = "application/pdf"

// documentPublisher загружает PDF по детерминированному пути и
// записывает указатель на него. Общий для конвейера и сверки.
type documentPublisher struct {
	store objectstore.Store
	docs  repository.DocumentRepository
}

// publish загружает pdf в <cpf>/<authorization_id>.pdf с перезаписью и
// создаёт запись documents. Возвращает запись и сведения о записанном
// объекте (размер, SHA-256). Ошибка загрузки — *StorageError,
// ошибка записи — *PersistenceError.
func (p *documentPublisher) publish(ctx context.Context, authorizationID, cpfDigits string, pdf []byte) (*model.Document, *objectstore.Object, error) {
	path := objectstore.DocumentPath(cpfDigits, authorizationID)

	start := time.Now()
	obj, err := p.store.Put(ctx, path, pdf, ContentTypePDF)
	observeStep(StepUpload, start)
	if err != nil {
		return nil, nil, &StorageError{Step: StepUpload, Err: err}
	}

	doc := &model.Document{
		AuthorizationID: authorizationID,
		StorageBucket:   obj.Bucket,
		StoragePath:     obj.Path,
	}
	start = time.Now()
	err = p.docs.Create(ctx, doc)
	observeStep(StepDocument, start)
	if err != nil {
		return nil, nil, &PersistenceError{Step: StepDocument, Err: err}
	}
	return doc, obj, nil
}
