// reconcile.go — фоновая сверка авторизаций без документа.
//
// Конвейер пишет авторизацию до загрузки PDF, поэтому сбой хранилища
// оставляет активную авторизацию без записи documents. ReconcileService
// с интервалом CS_RECONCILE_INTERVAL находит такие авторизации старше
// CS_RECONCILE_GRACE и дозавершает их:
//  1. заново строит PDF из сохранённой строки (текст, подпись, хэш, время);
//  2. загружает его по тому же пути <cpf>/<authorization_id>.pdf;
//  3. записывает документ и аудит document_reconciled.
//
// Prometheus-метрики:
//   - cs_reconcile_runs_total — количество проходов
//   - cs_reconcile_documents_total — обработанные авторизации по результату
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/rafarisso/Cadastro-Cantina/internal/domain/model"
	"github.com/rafarisso/Cadastro-Cantina/internal/integrity"
	"github.com/rafarisso/Cadastro-Cantina/internal/objectstore"
	"github.com/rafarisso/Cadastro-Cantina/internal/render"
	"github.com/rafarisso/Cadastro-Cantina/internal/repository"
	"github.com/rafarisso/Cadastro-Cantina/internal/validation"
)

var (
	reconcileRunsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cs_reconcile_runs_total",
		Help: "Количество проходов сверки документов",
	})

	reconcileDocumentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cs_reconcile_documents_total",
		Help: "Авторизации, обработанные сверкой, по результату",
	}, []string{"result"}) // result: completed, failed
)

// ReconcileResult — итог одного прохода сверки.
type ReconcileResult struct {
	Found     int
	Completed int
	Failed    int
}

// ReconcileService — фоновый сервис сверки.
type ReconcileService struct {
	auths     repository.AuthorizationRepository
	audit     repository.AuditLogRepository
	publisher *documentPublisher
	renderer  DocumentRenderer
	interval  time.Duration
	grace     time.Duration
	batchSize int
	now       func() time.Time
	logger    *slog.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

// NewReconcileService создаёт сервис сверки.
func NewReconcileService(
	auths repository.AuthorizationRepository,
	docs repository.DocumentRepository,
	audit repository.AuditLogRepository,
	store objectstore.Store,
	renderer DocumentRenderer,
	interval, grace time.Duration,
	batchSize int,
	logger *slog.Logger,
) *ReconcileService {
	return &ReconcileService{
		auths:     auths,
		audit:     audit,
		publisher: &documentPublisher{store: store, docs: docs},
		renderer:  renderer,
		interval:  interval,
		grace:     grace,
		batchSize: batchSize,
		now:       time.Now,
		logger:    logger.With(slog.String("component", "reconcile")),
	}
}

// Start запускает фоновую горутину с периодической сверкой.
// Нулевой интервал отключает сверку.
func (s *ReconcileService) Start(ctx context.Context) {
	if s.interval <= 0 {
		s.logger.Info("Сверка документов отключена")
		return
	}

	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)

		s.logger.Info("Периодическая сверка документов запущена",
			slog.String("interval", s.interval.String()),
			slog.String("grace", s.grace.String()),
			slog.Int("batch_size", s.batchSize),
		)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				s.logger.Info("Периодическая сверка документов остановлена")
				return
			case <-ticker.C:
				res, err := s.RunOnce(ctx)
				if err != nil {
					s.logger.Error("Ошибка сверки документов", slog.String("error", err.Error()))
					continue
				}
				if res.Found > 0 {
					s.logger.Info("Сверка документов завершена",
						slog.Int("found", res.Found),
						slog.Int("completed", res.Completed),
						slog.Int("failed", res.Failed),
					)
				}
			}
		}
	}()
}

// Stop останавливает фоновую горутину и ждёт завершения.
func (s *ReconcileService) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	if s.done != nil {
		<-s.done
	}
}

// RunOnce выполняет один проход: до batchSize авторизаций.
// Ошибка одной авторизации не прерывает проход.
func (s *ReconcileService) RunOnce(ctx context.Context) (*ReconcileResult, error) {
	reconcileRunsTotal.Inc()

	ids, err := s.auths.ListWithoutDocument(ctx, s.now().Add(-s.grace), s.batchSize)
	if err != nil {
		return nil, fmt.Errorf("поиск авторизаций без документа: %w", err)
	}

	res := &ReconcileResult{Found: len(ids)}
	for _, id := range ids {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		if err := s.ReconcileOne(ctx, id); err != nil {
			res.Failed++
			reconcileDocumentsTotal.WithLabelValues("failed").Inc()
			s.logger.Error("Не удалось дозавершить авторизацию",
				slog.String("authorization_id", id),
				slog.String("step", stepOf(err)),
				slog.String("error", err.Error()),
			)
			continue
		}
		res.Completed++
		reconcileDocumentsTotal.WithLabelValues("completed").Inc()
	}
	return res, nil
}

// ReconcileOne строит и публикует документ одной авторизации.
func (s *ReconcileService) ReconcileOne(ctx context.Context, authorizationID string) error {
	b, err := s.auths.GetBundle(ctx, authorizationID)
	if err != nil {
		return &PersistenceError{Step: StepAuthorization, Err: err}
	}
	a := b.Authorization
	if a.Status != model.AuthorizationStatusActive {
		return fmt.Errorf("авторизация %s в статусе %s", a.ID, a.Status)
	}

	_, signature, err := validation.DecodeSignature(a.SignatureDataURL)
	if err != nil {
		return &RenderError{Err: fmt.Errorf("%w: %v", render.ErrUndecodableSignature, err)}
	}

	pdf, err := s.renderer.Render(&render.Document{
		Guardian:    *b.Guardian,
		Student:     *b.Student,
		TermText:    a.TermText,
		TermVersion: a.TermVersion,
		TermHash:    a.TermHashSHA256,
		AcceptedAt:  integrity.FormatTimestamp(a.AcceptedAt),
		IP:          a.AcceptedIP,
		UserAgent:   a.AcceptedUserAgent,
		Signature:   signature,
	}, integrity.AcceptanceTime(a.AcceptedAt))
	if err != nil {
		var re *RenderError
		if !errors.As(err, &re) {
			err = &RenderError{Err: err}
		}
		return err
	}

	doc, obj, err := s.publisher.publish(ctx, a.ID, b.Guardian.CPF, pdf)
	if err != nil {
		return err
	}

	if err := s.audit.Append(ctx, &model.AuditLog{
		EventType: model.AuditEventDocumentReconciled,
		EntityID:  a.ID,
		Meta: map[string]any{
			"guardian_id":     a.GuardianID,
			"student_id":      a.StudentID,
			"storage_bucket":  doc.StorageBucket,
			"storage_path":    doc.StoragePath,
			"checksum_sha256": obj.Checksum,
			"size":            obj.Size,
		},
	}); err != nil {
		auditFailuresTotal.Inc()
		s.logger.Error("Ошибка записи аудита",
			slog.String("event_type", model.AuditEventDocumentReconciled),
			slog.String("entity_id", a.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.Info("Документ авторизации восстановлен",
		slog.String("authorization_id", a.ID),
		slog.String("storage_path", doc.StoragePath),
	)
	return nil
}
