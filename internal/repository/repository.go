package repository

import (
	"github.com/hackforge/platform/pkg/database"
)

// Repositories holds all repository interfaces
type Repositories struct {
	User          UserRepository
	LinkedAccount LinkedAccountRepository
}

// NewRepositories creates all repositories
func NewRepositories(db *database.Postgres) *Repositories {
	return &Repositories{
		User:          NewUserRepository(db),
		LinkedAccount: NewLinkedAccountRepository(db),
	}
}
