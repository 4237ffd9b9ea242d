package model

import "time"

// Document — указатель на сгенерированный PDF в объектном хранилище.
// Если для авторизации существует несколько документов, актуален самый новый.
type Document struct {
	// ID — UUID документа
	ID string
	// AuthorizationID — UUID авторизации-владельца
	AuthorizationID string
	// StorageBucket — имя bucket/контейнера
	StorageBucket string
	// StoragePath — путь объекта внутри bucket
	StoragePath string
	// CreatedAt — время создания записи
	CreatedAt time.Time
}
