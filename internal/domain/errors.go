package domain

import "errors"

var (
	// ErrVerificationFailed is returned when an email has no matching registration.
	ErrVerificationFailed = errors.New("this email is not registered, please register first to participate")
	// ErrRegistrationNotFound is returned by registration stores on a lookup miss.
	ErrRegistrationNotFound = errors.New("registration not found")
	// ErrSettingsNotFound indicates the singleton quiz_settings row is missing.
	ErrSettingsNotFound = errors.New("quiz settings not found")
	// ErrSessionNotFound is returned when a participant session is not registered.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrSessionNotActive is returned when an answer arrives outside an active question.
	ErrSessionNotActive = errors.New("quiz session is not active")
	// ErrInvalidOption indicates a selected option index outside the question's options.
	ErrInvalidOption = errors.New("option index out of range")
	// ErrResultNotFound indicates a leaderboard lookup by result id missed.
	ErrResultNotFound = errors.New("quiz result not found")
)
