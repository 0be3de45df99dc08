package auth

import (
	"context"
	"errors"
)

// SeedAccount is an account created by Seed when its email is free
type SeedAccount struct {
	Email    string
	Password string
	Name     string
	Role     UserRole
}

// Seed creates the given accounts with deterministic ids. Accounts
// whose email is already taken, removed rows included, and accounts
// without a password are skipped. It returns the number created.
func Seed(ctx context.Context, repo RepositoryManager, logger Logger, accounts ...SeedAccount) (int, error) {
	if logger == nil {
		logger = defLogger{}
	}

	creator := NewCreateUserHandler(repo)
	created := 0

	for _, account := range accounts {
		if account.Email == "" || account.Password == "" {
			logger.Debug("seed skipped, missing email or password: %s", account.Email)
			continue
		}

		_, err := repo.Users().WithDeleted().FindByEmail(ctx, account.Email)
		if err == nil {
			logger.Debug("seed skipped, account exists: %s", account.Email)
			continue
		}
		if !errors.Is(err, ErrUserNotFound) {
			return created, err
		}

		if _, err := creator.Create(ctx, CreateUserMessage{
			Email:     account.Email,
			Name:      account.Name,
			Role:      account.Role,
			Password:  account.Password,
			UseHashid: true,
		}); err != nil {
			return created, err
		}

		logger.Info("seeded %s account %s", account.Role, account.Email)
		created++
	}

	return created, nil
}
