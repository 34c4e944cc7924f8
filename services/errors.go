package services

import "errors"

var (
	ErrValidationFailed = errors.New("validation failed")

	ErrTournamentNotFound = errors.New("tournament not found")
	ErrMatchNotFound      = errors.New("match not found")
	ErrUserNotFound       = errors.New("user not found")

	// Business rules.
	ErrRegistrationNotOpen               = errors.New("tournament registration is not open")
	ErrTournamentFull                    = errors.New("tournament registration is full")
	ErrTeamNameConflict                  = errors.New("team name is already registered for this tournament")
	ErrTournamentInvalidStatusTransition = errors.New("invalid tournament status transition")
	ErrTournamentInvalidDateRange        = errors.New("tournament registration must start before the tournament")
	ErrTournamentNameRequired            = errors.New("tournament name is required")
	ErrNotEnoughTeams                    = errors.New("at least two active teams are required to start the tournament")
	ErrTournamentNotStarted              = errors.New("tournament has not started")
	ErrSnapshotDiverged                  = errors.New("stored matches do not match the bracket")

	// Lifecycle guards.
	ErrTournamentAlreadyStarted   = errors.New("tournament has already started")
	ErrTournamentNotYetStartable  = errors.New("tournament start date has not been reached")
	ErrTournamentAlreadyBracketed = errors.New("tournament bracket already exists")
	ErrTournamentFinished         = errors.New("tournament is finished, no more results are accepted")
	ErrMatchAlreadyResolved       = errors.New("match winner is already defined")
	ErrInvalidWinner              = errors.New("winner must be one of the match teams")
	ErrInvalidBracketOperation    = errors.New("invalid bracket operation")
	ErrSnapshotMissing            = errors.New("tournament bracket does not exist")

	ErrAuthInvalidCredentials = errors.New("invalid username or password")
)
