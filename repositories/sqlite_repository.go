package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Dosada05/conference-tickets/models"
)

type sqliteParticipantRepository struct {
	db *sql.DB
}

// NewSQLiteParticipantRepository — реализация поверх SQLite (modernc.org/sqlite).
// Семантика идентична Postgres-реализации; отличаются только плейсхолдеры,
// регистронезависимый поиск и способ распознавания нарушений уникальности.
func NewSQLiteParticipantRepository(db *sql.DB) ParticipantRepository {
	return &sqliteParticipantRepository{db: db}
}

func (r *sqliteParticipantRepository) Create(ctx context.Context, participant *models.Participant) error {
	// SQLite не умеет назначать timestamp в RETURNING без выражений;
	// момент вставки фиксируем здесь, в одном стейтменте с записью.
	now := time.Now().UTC()

	result, err := r.db.ExecContext(ctx, `
		INSERT INTO participants (ticket_id, full_name, email, github_username, avatar_filename, qr_code_filename, registration_date)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		participant.TicketID,
		participant.FullName,
		participant.Email,
		participant.GithubUsername,
		participant.AvatarFilename,
		participant.QRCodeFilename,
		now,
	)
	if err != nil {
		if conflictErr := mapSQLiteUniqueError(err); conflictErr != nil {
			return conflictErr
		}
		return fmt.Errorf("failed to insert participant: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	participant.ID = id
	participant.RegistrationDate = now
	return nil
}

func (r *sqliteParticipantRepository) GetByEmail(ctx context.Context, email string) (*models.Participant, error) {
	query := `SELECT ` + participantColumns + ` FROM participants WHERE email = ?`
	return r.scanParticipant(ctx, query, email)
}

func (r *sqliteParticipantRepository) GetByTicketID(ctx context.Context, ticketID string) (*models.Participant, error) {
	query := `SELECT ` + participantColumns + ` FROM participants WHERE ticket_id = ?`
	return r.scanParticipant(ctx, query, ticketID)
}

func (r *sqliteParticipantRepository) List(ctx context.Context, params ListParams) ([]models.Participant, int, error) {
	where := ""
	args := []interface{}{}
	if params.Search != "" {
		// LIKE в SQLite регистронезависим только для ASCII, поэтому
		// приводим обе стороны к нижнему регистру явно.
		where = `
		WHERE instr(lower(full_name), ?1) > 0
		   OR instr(lower(email), ?1) > 0
		   OR instr(lower(github_username), ?1) > 0
		   OR instr(lower(ticket_id), ?1) > 0`
		args = append(args, strings.ToLower(params.Search))
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM participants` + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count participants: %w", err)
	}

	query := `SELECT ` + participantColumns + ` FROM participants` + where + `
		ORDER BY registration_date DESC, id DESC
		LIMIT ? OFFSET ?`
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

func (r *sqliteParticipantRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM participants`).Scan(&count)
	return count, err
}

func (r *sqliteParticipantRepository) CountSince(ctx context.Context, since time.Time) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM participants WHERE registration_date >= ?`, since.UTC()).Scan(&count)
	return count, err
}

func (r *sqliteParticipantRepository) CountBetween(ctx context.Context, from, to time.Time) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM participants WHERE registration_date >= ? AND registration_date < ?`,
		from.UTC(), to.UTC()).Scan(&count)
	return count, err
}

func (r *sqliteParticipantRepository) DeleteAll(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM participants`)
	return err
}

func (r *sqliteParticipantRepository) scanParticipant(ctx context.Context, query string, args ...interface{}) (*models.Participant, error) {
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

// mapSQLiteUniqueError распознаёт нарушение UNIQUE constraint по тексту
// ошибки драйвера (modernc.org/sqlite не экспортирует коды отдельным типом).
func mapSQLiteUniqueError(err error) error {
	msg := err.Error()
	if !strings.Contains(msg, "UNIQUE constraint failed") {
		return nil
	}
	switch {
	case strings.Contains(msg, "participants.email"):
		return ErrEmailConflict
	case strings.Contains(msg, "participants.ticket_id"):
		return ErrTicketIDConflict
	default:
		return ErrEmailConflict
	}
}
