package models

import "time"

// Participant — единственная персистентная сущность: одна запись на успешную
// регистрацию. TicketID и Email неизменяемы после создания.
type Participant struct {
	ID               int64     `json:"id"`
	TicketID         string    `json:"ticket_id"`
	FullName         string    `json:"full_name"`
	Email            string    `json:"email"`
	GithubUsername   string    `json:"github_username"`
	AvatarFilename   *string   `json:"avatar_filename"`
	QRCodeFilename   *string   `json:"qr_code_filename"`
	RegistrationDate time.Time `json:"registration_date"`
}
