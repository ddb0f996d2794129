package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Dosada05/conference-tickets/models"
	"github.com/Dosada05/conference-tickets/repositories"
)

const (
	defaultPerPage = 20
	maxPerPage     = 100
)

type ParticipantPage struct {
	Participants []models.Participant
	Total        int
	Pages        int
	Page         int
	PerPage      int
}

type RegistrationStats struct {
	Total int
	Today int
	Week  int
	AsOf  time.Time
}

// QueryService — read-сторона: список с поиском и пагинацией, статистика,
// проверка билетов. Каждый вызов ходит в хранилище заново, без кэша.
type QueryService struct {
	participants repositories.ParticipantRepository

	// now подменяется в тестах статистики.
	now func() time.Time
}

func NewQueryService(participants repositories.ParticipantRepository) *QueryService {
	return &QueryService{
		participants: participants,
		now:          time.Now,
	}
}

// List возвращает страницу участников, новые записи первыми.
// page < 1 трактуется как 1, perPage ограничивается сверху maxPerPage;
// страница за пределами данных — пустой список, не ошибка.
func (s *QueryService) List(ctx context.Context, page, perPage int, search string) (*ParticipantPage, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}

	participants, total, err := s.participants.List(ctx, repositories.ListParams{
		Search: strings.TrimSpace(search),
		Limit:  perPage,
		Offset: (page - 1) * perPage,
	})
	if err != nil {
		return nil, err
	}

	pages := total / perPage
	if total%perPage != 0 {
		pages++
	}

	return &ParticipantPage{
		Participants: participants,
		Total:        total,
		Pages:        pages,
		Page:         page,
		PerPage:      perPage,
	}, nil
}

// Stats считает регистрации всего, за текущие UTC-сутки и с последнего
// понедельника 00:00 UTC. Три счётчика ходят в хранилище параллельно.
func (s *QueryService) Stats(ctx context.Context) (*RegistrationStats, error) {
	now := s.now().UTC()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.Add(24 * time.Hour)

	// Понедельник = начало недели; Weekday() считает с воскресенья.
	daysSinceMonday := (int(now.Weekday()) + 6) % 7
	weekStart := dayStart.AddDate(0, 0, -daysSinceMonday)

	stats := &RegistrationStats{AsOf: now}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		total, err := s.participants.Count(gctx)
		stats.Total = total
		return err
	})
	g.Go(func() error {
		today, err := s.participants.CountBetween(gctx, dayStart, dayEnd)
		stats.Today = today
		return err
	})
	g.Go(func() error {
		week, err := s.participants.CountSince(gctx, weekStart)
		stats.Week = week
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return stats, nil
}

// Verify нормализует идентификатор билета (обрезка пробелов, удаление '#',
// верхний регистр) и ищет запись. Отсутствие билета — не ошибка сервиса,
// а отрицательный результат ErrTicketNotFound.
func (s *QueryService) Verify(ctx context.Context, rawTicketID string) (*models.Participant, error) {
	ticketID := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(rawTicketID), "#", ""))

	participant, err := s.participants.GetByTicketID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, repositories.ErrParticipantNotFound) {
			return nil, ErrTicketNotFound
		}
		return nil, err
	}
	return participant, nil
}

// Reset — bulk-wipe всех записей. Доступен только в dev-режиме, маршрут
// монтируется соответствующе.
func (s *QueryService) Reset(ctx context.Context) error {
	return s.participants.DeleteAll(ctx)
}
