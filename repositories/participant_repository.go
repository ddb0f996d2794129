package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/Dosada05/conference-tickets/models"
)

var (
	ErrParticipantNotFound = errors.New("participant not found")
	ErrEmailConflict       = errors.New("participant email conflict")
	ErrTicketIDConflict    = errors.New("participant ticket id conflict")
)

// ListParams — параметры выборки списка участников.
// Search — подстрока без учёта регистра по имени, email, github и ticket id.
type ListParams struct {
	Search string
	Limit  int
	Offset int
}

// ParticipantRepository — узкий интерфейс хранилища записей участников.
// Уникальность email и ticket_id обеспечивается constraint-ами хранилища;
// Create обязан транслировать их нарушение в ErrEmailConflict /
// ErrTicketIDConflict — это финальный арбитр при гонке check-then-act
// конкурентных регистраций.
type ParticipantRepository interface {
	// Create назначает ID и registration_date атомарно со вставкой.
	Create(ctx context.Context, participant *models.Participant) error
	GetByEmail(ctx context.Context, email string) (*models.Participant, error)
	GetByTicketID(ctx context.Context, ticketID string) (*models.Participant, error)
	// List возвращает страницу, отсортированную по registration_date DESC,
	// и общее число записей, подходящих под фильтр.
	List(ctx context.Context, params ListParams) ([]models.Participant, int, error)
	Count(ctx context.Context) (int, error)
	// CountSince считает записи с registration_date >= since.
	CountSince(ctx context.Context, since time.Time) (int, error)
	// CountBetween считает записи на полуинтервале [from, to).
	CountBetween(ctx context.Context, from, to time.Time) (int, error)
	// DeleteAll — bulk-wipe для development-сброса базы.
	DeleteAll(ctx context.Context) error
}

type postgresParticipantRepository struct {
	db *sql.DB
}

func NewPostgresParticipantRepository(db *sql.DB) ParticipantRepository {
	return &postgresParticipantRepository{db: db}
}

const participantColumns = `id, ticket_id, full_name, email, github_username, avatar_filename, qr_code_filename, registration_date`

func (r *postgresParticipantRepository) Create(ctx context.Context, participant *models.Participant) error {
	query := `
		INSERT INTO participants (ticket_id, full_name, email, github_username, avatar_filename, qr_code_filename)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, registration_date`

	err := r.db.QueryRowContext(ctx, query,
		participant.TicketID,
		participant.FullName,
		participant.Email,
		participant.GithubUsername,
		participant.AvatarFilename,
		participant.QRCodeFilename,
	).Scan(&participant.ID, &participant.RegistrationDate)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" { // unique_violation
			switch pqErr.Constraint {
			case "participants_email_key":
				return ErrEmailConflict
			case "participants_ticket_id_key":
				return ErrTicketIDConflict
			}
		}
		return err
	}
	return nil
}

func (r *postgresParticipantRepository) GetByEmail(ctx context.Context, email string) (*models.Participant, error) {
	query := `SELECT ` + participantColumns + ` FROM participants WHERE email = $1`
	return r.scanParticipant(ctx, query, email)
}

func (r *postgresParticipantRepository) GetByTicketID(ctx context.Context, ticketID string) (*models.Participant, error) {
	query := `SELECT ` + participantColumns + ` FROM participants WHERE ticket_id = $1`
	return r.scanParticipant(ctx, query, ticketID)
}

func (r *postgresParticipantRepository) List(ctx context.Context, params ListParams) ([]models.Participant, int, error) {
	where := ""
	args := []interface{}{}
	if params.Search != "" {
		where = `
		WHERE full_name ILIKE '%' || $1 || '%'
		   OR email ILIKE '%' || $1 || '%'
		   OR github_username ILIKE '%' || $1 || '%'
		   OR ticket_id ILIKE '%' || $1 || '%'`
		args = append(args, params.Search)
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM participants` + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count participants: %w", err)
	}

	query := `SELECT ` + participantColumns + ` FROM participants` + where +
		fmt.Sprintf(`
		ORDER BY registration_date DESC, id DESC
		LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, params.Limit, params.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	participants := make([]models.Participant, 0)
	for rows.Next() {
		var p models.Participant
		if err := rows.Scan(
			&p.ID,
			&p.TicketID,
			&p.FullName,
			&p.Email,
			&p.GithubUsername,
			&p.AvatarFilename,
			&p.QRCodeFilename,
			&p.RegistrationDate,
		); err != nil {
			return nil, 0, err
		}
		participants = append(participants, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return participants, total, nil
}

func (r *postgresParticipantRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM participants`).Scan(&count)
	return count, err
}

func (r *postgresParticipantRepository) CountSince(ctx context.Context, since time.Time) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM participants WHERE registration_date >= $1`, since).Scan(&count)
	return count, err
}

func (r *postgresParticipantRepository) CountBetween(ctx context.Context, from, to time.Time) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM participants WHERE registration_date >= $1 AND registration_date < $2`, from, to).Scan(&count)
	return count, err
}

func (r *postgresParticipantRepository) DeleteAll(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM participants`)
	return err
}

func (r *postgresParticipantRepository) scanParticipant(ctx context.Context, query string, args ...interface{}) (*models.Participant, error) {
	p := &models.Participant{}
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&p.ID,
		&p.TicketID,
		&p.FullName,
		&p.Email,
		&p.GithubUsername,
		&p.AvatarFilename,
		&p.QRCodeFilename,
		&p.RegistrationDate,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrParticipantNotFound
		}
		return nil, err
	}
	return p, nil
}
