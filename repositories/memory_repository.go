package repositories

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Dosada05/conference-tickets/models"
)

type memoryParticipantRepository struct {
	mu           sync.RWMutex
	participants []models.Participant
	nextID       int64
}

// NewMemoryParticipantRepository — потокобезопасная реализация в памяти.
// Используется в тестах сервисов и обработчиков вместо реальной базы;
// повторяет контракт Create с constraint-ами и сортировку List.
func NewMemoryParticipantRepository() ParticipantRepository {
	return &memoryParticipantRepository{nextID: 1}
}

func (r *memoryParticipantRepository) Create(ctx context.Context, participant *models.Participant) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range r.participants {
		if p.Email == participant.Email {
			return ErrEmailConflict
		}
		if p.TicketID == participant.TicketID {
			return ErrTicketIDConflict
		}
	}

	participant.ID = r.nextID
	r.nextID++
	if participant.RegistrationDate.IsZero() {
		participant.RegistrationDate = time.Now().UTC()
	}
	r.participants = append(r.participants, *participant)
	return nil
}

func (r *memoryParticipantRepository) GetByEmail(ctx context.Context, email string) (*models.Participant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.participants {
		if p.Email == email {
			found := p
			return &found, nil
		}
	}
	return nil, ErrParticipantNotFound
}

func (r *memoryParticipantRepository) GetByTicketID(ctx context.Context, ticketID string) (*models.Participant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.participants {
		if p.TicketID == ticketID {
			found := p
			return &found, nil
		}
	}
	return nil, ErrParticipantNotFound
}

func (r *memoryParticipantRepository) List(ctx context.Context, params ListParams) ([]models.Participant, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]models.Participant, 0)
	needle := strings.ToLower(params.Search)
	for _, p := range r.participants {
		if needle == "" || matchesSearch(p, needle) {
			matched = append(matched, p)
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].RegistrationDate.Equal(matched[j].RegistrationDate) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].RegistrationDate.After(matched[j].RegistrationDate)
	})

	total := len(matched)
	if params.Offset >= total {
		return []models.Participant{}, total, nil
	}
	end := params.Offset + params.Limit
	if end > total {
		end = total
	}
	page := make([]models.Participant, end-params.Offset)
	copy(page, matched[params.Offset:end])
	return page, total, nil
}

func (r *memoryParticipantRepository) Count(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.participants), nil
}

func (r *memoryParticipantRepository) CountSince(ctx context.Context, since time.Time) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	count := 0
	for _, p := range r.participants {
		if !p.RegistrationDate.Before(since) {
			count++
		}
	}
	return count, nil
}

func (r *memoryParticipantRepository) CountBetween(ctx context.Context, from, to time.Time) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	count := 0
	for _, p := range r.participants {
		if !p.RegistrationDate.Before(from) && p.RegistrationDate.Before(to) {
			count++
		}
	}
	return count, nil
}

func (r *memoryParticipantRepository) DeleteAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.participants = nil
	return nil
}

func matchesSearch(p models.Participant, needle string) bool {
	return strings.Contains(strings.ToLower(p.FullName), needle) ||
		strings.Contains(strings.ToLower(p.Email), needle) ||
		strings.Contains(strings.ToLower(p.GithubUsername), needle) ||
		strings.Contains(strings.ToLower(p.TicketID), needle)
}
