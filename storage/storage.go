package storage

import (
	"context"
	"errors"
)

// Area — логическая файловая область приложения.
type Area string

const (
	AreaAvatars Area = "uploads"
	AreaQRCodes Area = "qr_codes"
)

var ErrFileNotFound = errors.New("file not found")

// FileStorage абстрагирует хранение файлов аватаров и QR-кодов.
// Обе области читаются и пишутся через один интерфейс, поэтому раздача
// /uploads и /qr_codes работает одинаково для локального и R2 бэкендов.
type FileStorage interface {
	Save(ctx context.Context, area Area, filename string, contentType string, data []byte) error

	// Open возвращает содержимое файла и его content type.
	// Отсутствующий файл — ErrFileNotFound.
	Open(ctx context.Context, area Area, filename string) ([]byte, string, error)

	Delete(ctx context.Context, area Area, filename string) error
}
