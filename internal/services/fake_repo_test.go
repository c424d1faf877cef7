package services

import (
	"context"
	"sort"
	"time"

	"github.com/transportmanager/apiserver/internal/store"
	"github.com/transportmanager/apiserver/types"
)

// fakeRepo is an in-memory UserRepository and CredentialStore that records
// how many times it was called.
type fakeRepo struct {
	users     map[int]types.UserRecord
	nextID    int
	calls     int
	now       time.Time
	failWith  error
	touchErr  error
	touchedID int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		users:  map[int]types.UserRecord{},
		nextID: 1,
		now:    time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func (f *fakeRepo) tick() time.Time {
	f.now = f.now.Add(time.Second)
	return f.now
}

func (f *fakeRepo) seed(name, email, password string, role types.Role, status types.Status) types.User {
	now := f.tick()
	record := types.UserRecord{
		User: types.User{
			ID:        f.nextID,
			Name:      name,
			Email:     email,
			Role:      role,
			Status:    status,
			CreatedAt: now,
			UpdatedAt: now,
		},
		Password: password,
	}
	f.users[record.ID] = record
	f.nextID++
	return record.User
}

func (f *fakeRepo) List(ctx context.Context) ([]types.User, error) {
	f.calls++
	if f.failWith != nil {
		return nil, f.failWith
	}
	users := make([]types.User, 0, len(f.users))
	for _, record := range f.users {
		users = append(users, record.User)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].CreatedAt.After(users[j].CreatedAt) })
	return users, nil
}

func (f *fakeRepo) GetByID(ctx context.Context, id int) (types.User, error) {
	f.calls++
	if f.failWith != nil {
		return types.User{}, f.failWith
	}
	record, ok := f.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return record.User, nil
}

func (f *fakeRepo) GetByEmail(ctx context.Context, email string) (types.UserRecord, error) {
	f.calls++
	if f.failWith != nil {
		return types.UserRecord{}, f.failWith
	}
	for _, record := range f.users {
		if record.Email == email && record.Status == types.StatusActive {
			return record, nil
		}
	}
	return types.UserRecord{}, store.ErrNotFound
}

func (f *fakeRepo) Create(ctx context.Context, user types.NewUser) (types.User, error) {
	f.calls++
	if f.failWith != nil {
		return types.User{}, f.failWith
	}
	status := user.Status
	if status == "" {
		status = types.StatusActive
	}
	return f.seed(user.Name, user.Email, user.Password, user.Role, status), nil
}

func (f *fakeRepo) Update(ctx context.Context, id int, update types.UserUpdate) (types.User, error) {
	f.calls++
	if f.failWith != nil {
		return types.User{}, f.failWith
	}
	record, ok := f.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	if update.Name != "" {
		record.Name = update.Name
	}
	if update.Email != "" {
		record.Email = update.Email
	}
	if update.Password != "" {
		record.Password = update.Password
	}
	if update.Role != "" {
		record.Role = update.Role
	}
	if update.Status != "" {
		record.Status = update.Status
	}
	record.UpdatedAt = f.tick()
	f.users[id] = record
	return record.User, nil
}

func (f *fakeRepo) TouchLastLogin(ctx context.Context, id int) error {
	f.calls++
	if f.touchErr != nil {
		return f.touchErr
	}
	record, ok := f.users[id]
	if !ok {
		return nil
	}
	now := f.tick()
	record.LastLogin = &now
	f.users[id] = record
	f.touchedID = id
	return nil
}

func (f *fakeRepo) SoftDelete(ctx context.Context, id int) (bool, error) {
	f.calls++
	if f.failWith != nil {
		return false, f.failWith
	}
	record, ok := f.users[id]
	if !ok || record.Status == types.StatusInactive {
		return false, nil
	}
	record.Status = types.StatusInactive
	f.users[id] = record
	return true, nil
}

func (f *fakeRepo) EmailInUse(ctx context.Context, email string, excludeID int) (bool, error) {
	f.calls++
	if f.failWith != nil {
		return false, f.failWith
	}
	for id, record := range f.users {
		if record.Email == email && id != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRepo) CountByRole(ctx context.Context) (types.RoleCounts, error) {
	f.calls++
	if f.failWith != nil {
		return types.RoleCounts{}, f.failWith
	}
	var counts types.RoleCounts
	for _, record := range f.users {
		if record.Status != types.StatusActive {
			continue
		}
		switch record.Role {
		case types.RoleAdmin:
			counts.Admin++
		case types.RoleOperator:
			counts.Operator++
		case types.RoleViewer:
			counts.Viewer++
		}
	}
	return counts, nil
}
