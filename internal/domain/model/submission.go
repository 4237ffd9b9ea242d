package model

// SubmissionRequest — сырой JSON-запрос формы авторизации.
type SubmissionRequest struct {
	Guardian         *GuardianInput `json:"guardian"`
	Student          *StudentInput  `json:"student"`
	TermVersion      string         `json:"term_version"`
	TermText         string         `json:"term_text"`
	SignatureDataURL string         `json:"signature_data_url"`
}

// GuardianInput — поля представителя в том виде, в каком их присылает форма.
type GuardianInput struct {
	FullName            string  `json:"full_name"`
	CPF                 string  `json:"cpf"`
	BirthDate           string  `json:"birth_date"`
	Email               string  `json:"email"`
	PhonePrimary        string  `json:"phone_primary"`
	PhoneSecondary      string  `json:"phone_secondary"`
	CEP                 string  `json:"cep"`
	AddressStreet       string  `json:"address_street"`
	AddressNumber       string  `json:"address_number"`
	AddressComplement   *string `json:"address_complement"`
	AddressNeighborhood string  `json:"address_neighborhood"`
	AddressCity         string  `json:"address_city"`
	AddressState        string  `json:"address_state"`
}

// StudentInput — поля ученика из формы.
type StudentInput struct {
	FullName   string `json:"full_name"`
	ClassRoom  string `json:"class_room"`
	Period     string `json:"period"`
	SchoolName string `json:"school_name"`
}

// Signature — декодированная подпись из data URI.
type Signature struct {
	// DataURL — исходный data URI (хранится в authorizations)
	DataURL string
	// ContentType — объявленный MIME-тип (image/png, image/jpeg, ...)
	ContentType string
	// Data — декодированные байты изображения
	Data []byte
}

// Submission — нормализованная и провалидированная отправка.
type Submission struct {
	Guardian    Guardian
	Student     Student
	TermVersion string
	TermText    string
	Signature   Signature
}
