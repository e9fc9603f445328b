package repository

import (
	"fmt"

	"github.com/yourusername/safe-legs/internal/database"
)

// Repositories holds all repository implementations
type Repositories struct {
	Candidate CandidateRepository
	Run       RunRepository
}

// NewRepositories creates and returns all repository implementations
func NewRepositories(db *database.DB) (*Repositories, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	return &Repositories{
		Candidate: NewPostgresCandidateRepository(db),
		Run:       NewPostgresRunRepository(db),
	}, nil
}
