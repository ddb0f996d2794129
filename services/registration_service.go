package services

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/Dosada05/conference-tickets/models"
	"github.com/Dosada05/conference-tickets/repositories"
)

const ticketIDPrefix = "TC"

// AvatarProcessor нормализует загруженный аватар и возвращает имя файла.
type AvatarProcessor interface {
	Process(ctx context.Context, data string) (string, error)
}

// CredentialEncoder рендерит билет в QR-код и возвращает имя файла.
type CredentialEncoder interface {
	Encode(ctx context.Context, ticketID, fullName, email, github string) (string, error)
}

type RegistrationInput struct {
	FullName       string `json:"full_name"`
	Email          string `json:"email"`
	GithubUsername string `json:"github_username"`
	Avatar         string `json:"avatar,omitempty"`
}

type RegistrationService struct {
	participants repositories.ParticipantRepository
	avatars      AvatarProcessor
	credentials  CredentialEncoder
	logger       *slog.Logger
}

func NewRegistrationService(
	participants repositories.ParticipantRepository,
	avatars AvatarProcessor,
	credentials CredentialEncoder,
	logger *slog.Logger,
) *RegistrationService {
	return &RegistrationService{
		participants: participants,
		avatars:      avatars,
		credentials:  credentials,
		logger:       logger,
	}
}

// Register проводит регистрацию через последовательность жёстких ворот:
// валидация полей, формат email, занятость email, обработка аватара,
// генерация ticket id, QR-код, запись в хранилище. Ошибка QR-кода не
// фатальна — запись создаётся без credential-файла; ошибка аватара фатальна.
func (s *RegistrationService) Register(ctx context.Context, input RegistrationInput) (*models.Participant, error) {
	if strings.TrimSpace(input.FullName) == "" {
		return nil, ErrFullNameRequired
	}
	if strings.TrimSpace(input.Email) == "" {
		return nil, ErrEmailRequired
	}
	if strings.TrimSpace(input.GithubUsername) == "" {
		return nil, ErrGithubRequired
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))
	if !isValidEmail(email) {
		return nil, ErrInvalidEmail
	}

	// Ранняя проверка занятости email: до любых побочных эффектов.
	// Гонка с конкурентной регистрацией закрывается constraint-ом при Create.
	_, err := s.participants.GetByEmail(ctx, email)
	if err == nil {
		return nil, ErrEmailConflict
	}
	if !errors.Is(err, repositories.ErrParticipantNotFound) {
		return nil, fmt.Errorf("%w: %v", ErrRegistrationFailed, err)
	}

	var avatarFilename *string
	if input.Avatar != "" {
		filename, err := s.avatars.Process(ctx, input.Avatar)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrAvatarProcessing, err)
		}
		avatarFilename = &filename
	}

	ticketID, err := s.generateTicketID(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRegistrationFailed, err)
	}

	fullName := strings.TrimSpace(input.FullName)
	github := strings.TrimPrefix(strings.TrimSpace(input.GithubUsername), "@")

	var qrFilename *string
	filename, err := s.credentials.Encode(ctx, ticketID, fullName, email, github)
	if err != nil {
		// Запись создаётся и без credential-файла.
		s.logger.Error("failed to generate qr code, continuing without it",
			slog.String("ticket_id", ticketID),
			slog.Any("error", err))
	} else {
		qrFilename = &filename
	}

	participant := &models.Participant{
		TicketID:       ticketID,
		FullName:       fullName,
		Email:          email,
		GithubUsername: github,
		AvatarFilename: avatarFilename,
		QRCodeFilename: qrFilename,
	}

	if err := s.participants.Create(ctx, participant); err != nil {
		switch {
		case errors.Is(err, repositories.ErrEmailConflict):
			// Проверка выше проиграла гонку — constraint хранилища решает.
			return nil, ErrEmailConflict
		case errors.Is(err, repositories.ErrTicketIDConflict):
			return nil, ErrTicketConflict
		default:
			// Файлы аватара и QR-кода к этому моменту уже записаны и не
			// удаляются — известная утечка, см. DESIGN.md.
			return nil, fmt.Errorf("%w: %v", ErrRegistrationFailed, err)
		}
	}

	return participant, nil
}

// generateTicketID тянет кандидатов TC + 6 hex в верхнем регистре, пока не
// найдёт свободный. Цикл без верхней границы: вероятность коллизии на этом
// пространстве ключей ничтожна, но повторная коллизия не должна ронять
// регистрацию. Между проверкой и вставкой остаётся окно гонки — его
// закрывает unique constraint хранилища.
func (s *RegistrationService) generateTicketID(ctx context.Context) (string, error) {
	for {
		u := uuid.New()
		candidate := ticketIDPrefix + strings.ToUpper(hex.EncodeToString(u[:])[:6])

		_, err := s.participants.GetByTicketID(ctx, candidate)
		if errors.Is(err, repositories.ErrParticipantNotFound) {
			return candidate, nil
		}
		if err != nil {
			return "", err
		}
		// Занят — тянем следующего кандидата.
	}
}

// isValidEmail повторяет исходную проверку: '@' и хотя бы одна точка в
// сегменте между первым и вторым '@' (повторный '@' обрезает домен,
// так что "a@b@c.d" невалиден).
func isValidEmail(email string) bool {
	at := strings.Index(email, "@")
	if at == -1 {
		return false
	}
	domain := email[at+1:]
	if next := strings.Index(domain, "@"); next != -1 {
		domain = domain[:next]
	}
	return strings.Contains(domain, ".")
}
