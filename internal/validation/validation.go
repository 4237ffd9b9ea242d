// Пакет validation — структурная и смысловая проверка формы авторизации.
// Нормализует значения (только цифры, регистр, пробелы) и проверяет их
// через go-playground/validator с собственными тегами (cpf, phone, cep, uf, period).
// Чистая функция: никаких побочных эффектов.
package validation

import (
	"bytes"
	"errors"
	"image"
	_ "image/jpeg" // регистрация декодера для image.DecodeConfig
	_ "image/png"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/rafarisso/Cadastro-Cantina/internal/domain/cpf"
	"github.com/rafarisso/Cadastro-Cantina/internal/domain/model"
)

// DefaultSchoolName — школа по умолчанию, если поле school_name пустое.
const DefaultSchoolName = "Colégio Órion"

// MaxSignatureSide — максимальная ширина и высота подписи в пикселях.
const MaxSignatureSide = 4000

// guardianFields — нормализованные поля представителя для проверки тегами.
// Порядок полей определяет порядок сообщений об ошибках.
type guardianFields struct {
	FullName            string `json:"full_name" validate:"required"`
	CPF                 string `json:"cpf" validate:"required,cpf"`
	BirthDate           string `json:"birth_date" validate:"required,datetime=2006-01-02"`
	Email               string `json:"email" validate:"required,email"`
	PhonePrimary        string `json:"phone_primary" validate:"required,phone"`
	PhoneSecondary      string `json:"phone_secondary" validate:"required,phone,nefield=PhonePrimary"`
	CEP                 string `json:"cep" validate:"required,cep"`
	AddressStreet       string `json:"address_street" validate:"required"`
	AddressNumber       string `json:"address_number" validate:"required"`
	AddressNeighborhood string `json:"address_neighborhood" validate:"required"`
	AddressCity         string `json:"address_city" validate:"required"`
	AddressState        string `json:"address_state" validate:"required,uf"`
}

// studentFields — нормализованные поля ученика.
type studentFields struct {
	FullName  string `json:"full_name" validate:"required"`
	ClassRoom string `json:"class_room" validate:"required"`
	Period    string `json:"period" validate:"required,period"`
}

// termFields — текст термина и подпись.
type termFields struct {
	TermText         string `json:"term_text" validate:"required"`
	TermVersion      string `json:"term_version" validate:"required"`
	SignatureDataURL string `json:"signature_data_url" validate:"required,image_data_uri"`
}

// periodAliases — значения периода, которые присылает форма.
var periodAliases = map[string]string{
	"morning":   model.PeriodMorning,
	"manha":     model.PeriodMorning,
	"manhã":     model.PeriodMorning,
	"afternoon": model.PeriodAfternoon,
	"tarde":     model.PeriodAfternoon,
}

// Validator — валидатор и нормализатор отправки формы.
// Безопасен для конкурентного использования.
type Validator struct {
	validate      *validator.Validate
	defaultSchool string
}

// New создаёт валидатор. defaultSchool — название школы по умолчанию
// (пустая строка — DefaultSchoolName).
func New(defaultSchool string) *Validator {
	if strings.TrimSpace(defaultSchool) == "" {
		defaultSchool = DefaultSchoolName
	}

	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	// Ошибки регистрации возможны только при пустом имени тега
	_ = v.RegisterValidation("cpf", func(fl validator.FieldLevel) bool {
		return cpf.Valid(fl.Field().String())
	})
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return isDigitsOfLen(fl.Field().String(), 10, 11)
	})
	_ = v.RegisterValidation("cep", func(fl validator.FieldLevel) bool {
		return isDigitsOfLen(fl.Field().String(), 8)
	})
	_ = v.RegisterValidation("uf", func(fl validator.FieldLevel) bool {
		return isTwoLetters(fl.Field().String())
	})
	_ = v.RegisterValidation("period", func(fl validator.FieldLevel) bool {
		return model.IsValidPeriod(fl.Field().String())
	})
	_ = v.RegisterValidation("image_data_uri", func(fl validator.FieldLevel) bool {
		return isImageDataURI(fl.Field().String())
	})

	return &Validator{validate: v, defaultSchool: defaultSchool}
}

// Validate проверяет запрос и возвращает нормализованную отправку.
// При нарушении возвращает *ValidationError с первым найденным полем.
func (v *Validator) Validate(req *model.SubmissionRequest) (*model.Submission, error) {
	if req == nil || req.Guardian == nil || req.Student == nil {
		return nil, &ValidationError{Reason: msgMissingBlock}
	}

	g := normalizeGuardian(req.Guardian)
	if err := v.check("guardian", g); err != nil {
		return nil, err
	}

	s := studentFields{
		FullName:  strings.TrimSpace(req.Student.FullName),
		ClassRoom: strings.TrimSpace(req.Student.ClassRoom),
		Period:    normalizePeriod(req.Student.Period),
	}
	if err := v.check("student", s); err != nil {
		return nil, err
	}

	t := termFields{
		TermText:         req.TermText,
		TermVersion:      strings.TrimSpace(req.TermVersion),
		SignatureDataURL: strings.TrimSpace(req.SignatureDataURL),
	}
	if strings.TrimSpace(t.TermText) == "" {
		t.TermText = ""
	}
	if err := v.check("", t); err != nil {
		return nil, err
	}

	contentType, data, err := parseImageDataURI(t.SignatureDataURL)
	if err != nil {
		return nil, &ValidationError{Field: "signature_data_url", Reason: msgSignature}
	}
	if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil &&
		(cfg.Width > MaxSignatureSide || cfg.Height > MaxSignatureSide) {
		return nil, &ValidationError{Field: "signature_data_url", Reason: msgSignatureSize}
	}

	school := strings.TrimSpace(req.Student.SchoolName)
	if school == "" {
		school = v.defaultSchool
	}

	var complement *string
	if req.Guardian.AddressComplement != nil {
		if c := strings.TrimSpace(*req.Guardian.AddressComplement); c != "" {
			complement = &c
		}
	}

	return &model.Submission{
		Guardian: model.Guardian{
			FullName:            g.FullName,
			CPF:                 g.CPF,
			BirthDate:           g.BirthDate,
			Email:               g.Email,
			PhonePrimary:        g.PhonePrimary,
			PhoneSecondary:      g.PhoneSecondary,
			CEP:                 g.CEP,
			AddressStreet:       g.AddressStreet,
			AddressNumber:       g.AddressNumber,
			AddressComplement:   complement,
			AddressNeighborhood: g.AddressNeighborhood,
			AddressCity:         g.AddressCity,
			AddressState:        g.AddressState,
		},
		Student: model.Student{
			FullName:   s.FullName,
			ClassRoom:  s.ClassRoom,
			Period:     s.Period,
			SchoolName: school,
		},
		TermVersion: t.TermVersion,
		TermText:    t.TermText,
		Signature: model.Signature{
			DataURL:     t.SignatureDataURL,
			ContentType: contentType,
			Data:        data,
		},
	}, nil
}

// check прогоняет теги validator и переводит первую ошибку в *ValidationError.
func (v *Validator) check(prefix string, s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &ValidationError{Field: prefix, Reason: msgInvalid}
	}

	fe := verrs[0]
	field := fe.Field()
	if prefix != "" {
		field = prefix + "." + field
	}
	return &ValidationError{Field: field, Reason: reasonFor(prefix, fe)}
}

// reasonFor подбирает сообщение для пользователя по тегу нарушения.
func reasonFor(prefix string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		if prefix == "" {
			return msgTermMissing
		}
		return msgMissing
	case "cpf":
		return msgCPF
	case "phone":
		return msgPhone
	case "nefield":
		return msgPhonesEqual
	case "cep":
		return msgCEP
	case "uf":
		return msgUF
	case "email":
		return msgEmail
	case "datetime":
		return msgBirthDate
	case "period":
		return msgPeriod
	case "image_data_uri":
		return msgSignature
	default:
		return msgInvalid
	}
}

// normalizeGuardian приводит поля представителя к каноническому виду.
func normalizeGuardian(in *model.GuardianInput) guardianFields {
	return guardianFields{
		FullName:            strings.TrimSpace(in.FullName),
		CPF:                 digitsOrRaw(in.CPF),
		BirthDate:           strings.TrimSpace(in.BirthDate),
		Email:               strings.ToLower(strings.TrimSpace(in.Email)),
		PhonePrimary:        digitsOrRaw(in.PhonePrimary),
		PhoneSecondary:      digitsOrRaw(in.PhoneSecondary),
		CEP:                 digitsOrRaw(in.CEP),
		AddressStreet:       strings.TrimSpace(in.AddressStreet),
		AddressNumber:       strings.TrimSpace(in.AddressNumber),
		AddressNeighborhood: strings.TrimSpace(in.AddressNeighborhood),
		AddressCity:         strings.TrimSpace(in.AddressCity),
		AddressState:        strings.ToUpper(strings.TrimSpace(in.AddressState)),
	}
}

// digitsOrRaw оставляет только цифры. Если цифр нет, а значение непустое,
// возвращает его как есть: тогда сработает проверка формата, а не "обязательное поле".
func digitsOrRaw(s string) string {
	d := cpf.OnlyDigits(s)
	if d == "" {
		return strings.TrimSpace(s)
	}
	return d
}

func normalizePeriod(p string) string {
	p = strings.ToLower(strings.TrimSpace(p))
	if canonical, ok := periodAliases[p]; ok {
		return canonical
	}
	return p
}

func isDigitsOfLen(s string, lengths ...int) bool {
	if cpf.OnlyDigits(s) != s {
		return false
	}
	for _, l := range lengths {
		if len(s) == l {
			return true
		}
	}
	return false
}

func isTwoLetters(s string) bool {
	if len(s) != 2 {
		return false
	}
	for i := 0; i < 2; i++ {
		c := s[i]
		if (c < 'A' || c > 'Z') && (c < 'a' || c > 'z') {
			return false
		}
	}
	return true
}
