package services

import (
	"context"
	"errors"

	"github.com/transportmanager/apiserver/internal/store"
	"github.com/transportmanager/apiserver/types"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	List(ctx context.Context) ([]types.User, error)
	GetByID(ctx context.Context, id int) (types.User, error)
	Create(ctx context.Context, user types.NewUser) (types.User, error)
	Update(ctx context.Context, id int, update types.UserUpdate) (types.User, error)
	SoftDelete(ctx context.Context, id int) (bool, error)
	EmailInUse(ctx context.Context, email string, excludeID int) (bool, error)
	CountByRole(ctx context.Context) (types.RoleCounts, error)
}

// CreateUserInput is the payload of the create operation.
type CreateUserInput struct {
	Name     string     `json:"name" validate:"required"`
	Email    string     `json:"email" validate:"required"`
	Password string     `json:"password" validate:"required"`
	Role     types.Role `json:"role" validate:"required,role"`
}

// UserService encapsulates the user administration use-cases.
// Every operation validates its input before it reaches the repository.
type UserService struct {
	repo      UserRepository
	passwords PasswordScheme
}

func NewUserService(repo UserRepository, passwords PasswordScheme) *UserService {
	if passwords == nil {
		passwords = PlaintextScheme{}
	}
	return &UserService{repo: repo, passwords: passwords}
}

func (s *UserService) List(ctx context.Context) ([]types.User, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, internalError(err, MsgListFailed)
	}
	return users, nil
}

func (s *UserService) Get(ctx context.Context, id int) (types.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, newError(KindNotFound, MsgUserNotFound)
		}
		return types.User{}, internalError(err, MsgGetFailed)
	}
	return user, nil
}

// Create adds an active user. The email check and the insert are separate
// statements; a concurrent insert of the same email is caught by the unique
// constraint and reported as a conflict as well.
func (s *UserService) Create(ctx context.Context, input CreateUserInput) (types.User, error) {
	if verr := validateStruct(input); verr != nil {
		return types.User{}, verr
	}

	inUse, err := s.repo.EmailInUse(ctx, input.Email, 0)
	if err != nil {
		return types.User{}, internalError(err, MsgCreateFailed)
	}
	if inUse {
		return types.User{}, newError(KindConflict, MsgEmailInUse)
	}

	stored, err := s.passwords.Hash(input.Password)
	if err != nil {
		return types.User{}, internalError(err, MsgCreateFailed)
	}

	user, err := s.repo.Create(ctx, types.NewUser{
		Name:     input.Name,
		Email:    input.Email,
		Password: stored,
		Role:     input.Role,
		Status:   types.StatusActive,
	})
	if err != nil {
		if errors.Is(err, store.ErrEmailTaken) {
			return types.User{}, newError(KindConflict, MsgEmailInUse)
		}
		return types.User{}, internalError(err, MsgCreateFailed)
	}
	return user, nil
}

// Update applies a partial update. Status may be set back to active here;
// only Delete enforces the last-admin rule.
func (s *UserService) Update(ctx context.Context, id int, update types.UserUpdate) (types.User, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return types.User{}, err
	}

	if verr := validateStruct(update); verr != nil {
		return types.User{}, verr
	}

	if update.Email != "" {
		inUse, err := s.repo.EmailInUse(ctx, update.Email, id)
		if err != nil {
			return types.User{}, internalError(err, MsgUpdateFailed)
		}
		if inUse {
			return types.User{}, newError(KindConflict, MsgEmailInUse)
		}
	}

	if update.Password != "" {
		stored, err := s.passwords.Hash(update.Password)
		if err != nil {
			return types.User{}, internalError(err, MsgUpdateFailed)
		}
		update.Password = stored
	}

	user, err := s.repo.Update(ctx, id, update)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			return types.User{}, newError(KindNotFound, MsgUserNotFound)
		case errors.Is(err, store.ErrEmailTaken):
			return types.User{}, newError(KindConflict, MsgEmailInUse)
		}
		return types.User{}, internalError(err, MsgUpdateFailed)
	}
	return user, nil
}

// Delete soft-deletes the user. Deleting an admin is refused while it is the
// only active admin. The returned flag is false when the user was already
// inactive and nothing changed.
func (s *UserService) Delete(ctx context.Context, id int) (bool, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return false, err
	}

	if user.Role == types.RoleAdmin {
		counts, err := s.repo.CountByRole(ctx)
		if err != nil {
			return false, internalError(err, MsgDeleteFailed)
		}
		if counts.Admin <= 1 {
			return false, newError(KindBusinessRule, MsgLastAdmin)
		}
	}

	deleted, err := s.repo.SoftDelete(ctx, id)
	if err != nil {
		return false, internalError(err, MsgDeleteFailed)
	}
	return deleted, nil
}

func (s *UserService) Stats(ctx context.Context) (types.UserStats, error) {
	counts, err := s.repo.CountByRole(ctx)
	if err != nil {
		return types.UserStats{}, internalError(err, MsgStatsFailed)
	}
	return types.UserStats{RoleCounts: counts, Total: counts.Total()}, nil
}
