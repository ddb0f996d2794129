package qrgen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image/color"
	"time"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/Dosada05/conference-tickets/storage"
)

// ErrEncodingFailed — сериализация или рендеринг QR-кода не удались.
var ErrEncodingFailed = errors.New("failed to encode credential")

// pixelsPerModule — фиксированный размер модуля QR-кода в пикселях;
// версию (ёмкость) библиотека подбирает минимально достаточную сама.
const pixelsPerModule = 10

// Foreground #1a1a2e на белом фоне.
var foreground = color.RGBA{R: 0x1a, G: 0x1a, B: 0x2e, A: 0xff}

type ticketPayload struct {
	TicketID    string `json:"ticket_id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Github      string `json:"github"`
	Event       string `json:"event"`
	Location    string `json:"location"`
	Date        string `json:"date"`
	Verified    bool   `json:"verified"`
	GeneratedAt string `json:"generated_at"`
}

// Encoder рендерит данные билета в сканируемый QR-код и сохраняет его
// в область QR-кодов.
type Encoder struct {
	files storage.FileStorage

	eventName     string
	eventLocation string
	eventDate     string

	// now подменяется в тестах.
	now func() time.Time
}

func NewEncoder(files storage.FileStorage, eventName, eventLocation, eventDate string) *Encoder {
	return &Encoder{
		files:         files,
		eventName:     eventName,
		eventLocation: eventLocation,
		eventDate:     eventDate,
		now:           time.Now,
	}
}

// Encode сохраняет qr_<ticketID>.png и возвращает имя файла.
// При любой ошибке файл не создаётся.
func (e *Encoder) Encode(ctx context.Context, ticketID, fullName, email, github string) (string, error) {
	payload, err := e.marshalPayload(ticketID, fullName, email, github)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrEncodingFailed, err)
	}

	qr, err := qrcode.New(payload, qrcode.Medium)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrEncodingFailed, err)
	}
	qr.ForegroundColor = foreground
	qr.BackgroundColor = color.White

	// Отрицательный размер задаёт пиксели на модуль вместо общего размера
	// картинки; рамка в 4 модуля добавляется библиотекой.
	png, err := qr.PNG(-pixelsPerModule)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrEncodingFailed, err)
	}

	filename := fmt.Sprintf("qr_%s.png", ticketID)
	if err := e.files.Save(ctx, storage.AreaQRCodes, filename, "image/png", png); err != nil {
		return "", err
	}
	return filename, nil
}

func (e *Encoder) marshalPayload(ticketID, fullName, email, github string) (string, error) {
	payload := ticketPayload{
		TicketID:    ticketID,
		Name:        fullName,
		Email:       email,
		Github:      github,
		Event:       e.eventName,
		Location:    e.eventLocation,
		Date:        e.eventDate,
		Verified:    true,
		GeneratedAt: e.now().UTC().Format(time.RFC3339),
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	// Не экранируем не-ASCII и HTML-символы: имена участников должны
	// читаться сканером как есть.
	enc.SetEscapeHTML(false)
	if err := enc.Encode(payload); err != nil {
		return "", err
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}
