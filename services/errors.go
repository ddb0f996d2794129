package services

import "errors"

// Общие ошибки сервисного слоя, маппятся на HTTP в handlers.
// Тексты намеренно совпадают с тем, что видит фронтенд.
var (
	// Ошибки валидации (400)
	ErrFullNameRequired = errors.New("full_name is required")
	ErrEmailRequired    = errors.New("email is required")
	ErrGithubRequired   = errors.New("github_username is required")
	ErrInvalidEmail     = errors.New("Invalid email format")

	// Конфликты уникальности (400)
	ErrEmailConflict  = errors.New("Email already registered")
	ErrTicketConflict = errors.New("Ticket ID already registered")

	// Ошибки конвейера (500)
	ErrAvatarProcessing   = errors.New("Failed to process avatar image")
	ErrRegistrationFailed = errors.New("Registration failed. Please try again.")

	// Поиск билета
	ErrTicketNotFound = errors.New("Ticket not found")
)
