// submission.go — конвейер приёма формы авторизации.
//
// Шаги строго по порядку, каждый выполняется только после успеха предыдущего:
//  1. валидация и нормализация;
//  2. upsert представителя и ученика (одна транзакция);
//  3. проверка отсутствия активной авторизации;
//  4. хэш целостности от момента принятия;
//  5. генерация PDF;
//  6. запись авторизации (status = active);
//  7. загрузка PDF в <cpf>/<authorization_id>.pdf;
//  8. запись документа;
//  9. подписанная ссылка на PDF;
//  10. запись аудита (ошибка только логируется).
//
// Между PostgreSQL и объектным хранилищем нет общей транзакции: сбой после
// шага 6 оставляет авторизацию без документа, её дозавершает ReconcileService.
//
// Prometheus-метрики:
//   - cs_submissions_total — отправки по исходу
//   - cs_pipeline_step_duration_seconds — длительность шагов
//   - cs_audit_failures_total — неудачные записи аудита
package service

import (
	"context"
	"errors"
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

// Исходы отправки (лейбл outcome).
const (
	OutcomeSuccess     = "success"
	OutcomeValidation  = "validation"
	OutcomeConflict    = "conflict"
	OutcomePersistence = "persistence"
	OutcomeRender      = "render"
	OutcomeStorage     = "storage"
)

var (
	submissionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cs_submissions_total",
		Help: "Количество отправок формы авторизации по исходу",
	}, []string{"outcome"})

	pipelineStepDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cs_pipeline_step_duration_seconds",
		Help:    "Длительность шагов конвейера авторизации",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms … ~8s
	}, []string{"step"})

	auditFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cs_audit_failures_total",
		Help: "Количество неудачных записей журнала аудита",
	})
)

func observeStep(step string, start time.Time) {
	pipelineStepDuration.WithLabelValues(step).Observe(time.Since(start).Seconds())
}

// DocumentRenderer — генератор PDF (render.Renderer).
type DocumentRenderer interface {
	Render(doc *render.Document, acceptedAt time.Time) ([]byte, error)
}

// ClientInfo — сведения о клиенте, сохраняемые как доказательство принятия.
type ClientInfo struct {
	IP        string
	UserAgent string
}

// SubmissionResult — результат успешной отправки.
type SubmissionResult struct {
	AuthorizationID string
	DocumentURL     string
	StoragePath     string
	TermHash        string
	AcceptedAt      time.Time
}

// SubmissionService — оркестратор конвейера авторизации.
type SubmissionService struct {
	validator *validation.Validator
	identity  IdentityResolver
	auths     repository.AuthorizationRepository
	audit     repository.AuditLogRepository
	store     objectstore.Store
	publisher *documentPublisher
	renderer  DocumentRenderer
	linkTTL   time.Duration
	now       func() time.Time
	logger    *slog.Logger
}

// NewSubmissionService создаёт оркестратор. linkTTL — срок действия
// ссылки на PDF в ответе.
func NewSubmissionService(
	validator *validation.Validator,
	identity IdentityResolver,
	auths repository.AuthorizationRepository,
	docs repository.DocumentRepository,
	audit repository.AuditLogRepository,
	store objectstore.Store,
	renderer DocumentRenderer,
	linkTTL time.Duration,
	logger *slog.Logger,
) *SubmissionService {
	return &SubmissionService{
		validator: validator,
		identity:  identity,
		auths:     auths,
		audit:     audit,
		store:     store,
		publisher: &documentPublisher{store: store, docs: docs},
		renderer:  renderer,
		linkTTL:   linkTTL,
		now:       time.Now,
		logger:    logger.With(slog.String("component", "submission_service")),
	}
}

// Submit проводит отправку через все шаги конвейера.
// Ошибки: *ValidationError, *ConflictError, *PersistenceError,
// *RenderError, *StorageError.
func (s *SubmissionService) Submit(ctx context.Context, req *model.SubmissionRequest, client ClientInfo) (*SubmissionResult, error) {
	res, err := s.submit(ctx, req, client)
	submissionsTotal.WithLabelValues(outcomeOf(err)).Inc()
	return res, err
}

func (s *SubmissionService) submit(ctx context.Context, req *model.SubmissionRequest, client ClientInfo) (*SubmissionResult, error) {
	// 1. Валидация
	start := time.Now()
	sub, err := s.validator.Validate(req)
	observeStep(StepValidate, start)
	if err != nil {
		var ve *ValidationError
		if errors.As(err, &ve) {
			s.logger.Info("Отправка отклонена валидацией",
				slog.String("field", ve.Field),
				slog.String("reason", ve.Reason),
			)
		}
		return nil, err
	}

	// 2. Представитель и ученик
	start = time.Now()
	guardianID, studentID, err := s.identity.Resolve(ctx, &sub.Guardian, &sub.Student)
	observeStep(StepGuardian, start)
	if err != nil {
		return nil, s.fail(err, slog.String("cpf", sub.Guardian.CPF))
	}

	// 3. Проверка активной авторизации
	start = time.Now()
	_, err = s.auths.FindActiveByStudent(ctx, studentID)
	observeStep(StepGuard, start)
	switch {
	case err == nil:
		return nil, s.fail(&ConflictError{StudentID: studentID}, slog.String("student_id", studentID))
	case !errors.Is(err, repository.ErrNotFound):
		return nil, s.fail(&PersistenceError{Step: StepGuard, Err: err}, slog.String("student_id", studentID))
	}

	// 4. Хэш целостности
	acceptedAt := integrity.AcceptanceTime(s.now())
	acceptedISO := acceptedAt.Format(integrity.TimestampLayout)
	hash := integrity.ComputeHash(sub.TermText, sub.Guardian.CPF, sub.Student.FullName, acceptedISO)

	// 5. PDF
	start = time.Now()
	pdf, err := s.renderer.Render(&render.Document{
		Guardian:    sub.Guardian,
		Student:     sub.Student,
		TermText:    sub.TermText,
		TermVersion: sub.TermVersion,
		TermHash:    hash,
		AcceptedAt:  acceptedISO,
		IP:          client.IP,
		UserAgent:   client.UserAgent,
		Signature:   sub.Signature.Data,
	}, acceptedAt)
	observeStep(StepRender, start)
	if err != nil {
		var re *RenderError
		if !errors.As(err, &re) {
			err = &RenderError{Err: err}
		}
		return nil, s.fail(err, slog.String("student_id", studentID))
	}

	// 6. Авторизация
	auth := &model.Authorization{
		GuardianID:        guardianID,
		StudentID:         studentID,
		TermVersion:       sub.TermVersion,
		TermText:          sub.TermText,
		SignatureDataURL:  sub.Signature.DataURL,
		TermHashSHA256:    hash,
		AcceptedAt:        acceptedAt,
		AcceptedIP:        client.IP,
		AcceptedUserAgent: client.UserAgent,
	}
	start = time.Now()
	err = s.auths.Create(ctx, auth)
	observeStep(StepAuthorization, start)
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			// Параллельная отправка успела раньше
			return nil, s.fail(&ConflictError{StudentID: studentID, Err: err}, slog.String("student_id", studentID))
		}
		return nil, s.fail(&PersistenceError{Step: StepAuthorization, Err: err}, slog.String("student_id", studentID))
	}

	// 7–8. Загрузка PDF и запись документа
	doc, obj, err := s.publisher.publish(ctx, auth.ID, sub.Guardian.CPF, pdf)
	if err != nil {
		return nil, s.fail(err, slog.String("authorization_id", auth.ID))
	}

	// 9. Подписанная ссылка
	start = time.Now()
	url, err := s.store.SignedURL(ctx, doc.StoragePath, s.linkTTL)
	observeStep(StepSignedURL, start)
	if err != nil {
		return nil, s.fail(&StorageError{Step: StepSignedURL, Err: err}, slog.String("authorization_id", auth.ID))
	}

	// 10. Аудит
	s.appendAudit(ctx, &model.AuditLog{
		EventType: model.AuditEventAuthorizationCreated,
		EntityID:  auth.ID,
		Meta: map[string]any{
			"guardian_id":     guardianID,
			"student_id":      studentID,
			"storage_bucket":  doc.StorageBucket,
			"storage_path":    doc.StoragePath,
			"checksum_sha256": obj.Checksum,
			"size":            obj.Size,
			"ip":              client.IP,
			"user_agent":      client.UserAgent,
		},
	})

	s.logger.Info("Авторизация оформлена",
		slog.String("authorization_id", auth.ID),
		slog.String("guardian_id", guardianID),
		slog.String("student_id", studentID),
		slog.String("storage_path", doc.StoragePath),
	)

	return &SubmissionResult{
		AuthorizationID: auth.ID,
		DocumentURL:     url,
		StoragePath:     doc.StoragePath,
		TermHash:        hash,
		AcceptedAt:      acceptedAt,
	}, nil
}

// appendAudit пишет запись аудита. Ошибка не отменяет уже записанное.
func (s *SubmissionService) appendAudit(ctx context.Context, e *model.AuditLog) {
	start := time.Now()
	err := s.audit.Append(ctx, e)
	observeStep(StepAudit, start)
	if err != nil {
		auditFailuresTotal.Inc()
		s.logger.Error("Ошибка записи аудита",
			slog.String("event_type", e.EventType),
			slog.String("entity_id", e.EntityID),
			slog.String("error", err.Error()),
		)
	}
}

// fail логирует ошибку шага для оператора и возвращает её без изменений.
// Конфликт — ожидаемый исход, логируется на уровне Info.
func (s *SubmissionService) fail(err error, attrs ...any) error {
	attrs = append(attrs, slog.String("step", stepOf(err)), slog.String("error", err.Error()))
	var ce *ConflictError
	if errors.As(err, &ce) {
		s.logger.Info("Отправка отклонена: активная авторизация уже существует", attrs...)
		return err
	}
	s.logger.Error("Ошибка конвейера авторизации", attrs...)
	return err
}

// stepOf возвращает шаг конвейера, на котором возникла ошибка.
func stepOf(err error) string {
	var (
		pe *PersistenceError
		se *StorageError
		re *RenderError
		ce *ConflictError
	)
	switch {
	case errors.As(err, &pe):
		return pe.Step
	case errors.As(err, &se):
		return se.Step
	case errors.As(err, &re):
		return StepRender
	case errors.As(err, &ce):
		return StepGuard
	default:
		return "unknown"
	}
}

// outcomeOf классифицирует результат отправки для метрик.
func outcomeOf(err error) string {
	var (
		ve *ValidationError
		ce *ConflictError
		re *RenderError
		se *StorageError
	)
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.As(err, &ve):
		return OutcomeValidation
	case errors.As(err, &ce):
		return OutcomeConflict
	case errors.As(err, &re):
		return OutcomeRender
	case errors.As(err, &se):
		return OutcomeStorage
	default:
		return OutcomePersistence
	}
}
