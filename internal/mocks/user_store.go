package mocks

import (
	"context"

	"github.com/phrazzld/users-qa/internal/domain"
	"github.com/phrazzld/users-qa/internal/store"
	"github.com/stretchr/testify/mock"
)

// MockUserStore is a mock of store.UserStore for use with testify/mock.
type MockUserStore struct {
	mock.Mock
}

var _ store.UserStore = (*MockUserStore)(nil)

// Create is a mock implementation of store.UserStore.Create.
func (m *MockUserStore) Create(ctx context.Context, user domain.User) (domain.User, error) {
	args := m.Called(ctx, user)
	return userArg(args, 0), args.Error(1)
}

// Get is a mock implementation of store.UserStore.Get.
func (m *MockUserStore) Get(ctx context.Context, id int) (domain.User, error) {
	args := m.Called(ctx, id)
	return userArg(args, 0), args.Error(1)
}

// List is a mock implementation of store.UserStore.List.
func (m *MockUserStore) List(ctx context.Context, ids ...int) ([]domain.User, error) {
	args := m.Called(ctx, ids)
	users, _ := args.Get(0).([]domain.User)
	return users, args.Error(1)
}

// Update is a mock implementation of store.UserStore.Update.
func (m *MockUserStore) Update(ctx context.Context, user domain.User) (domain.User, error) {
	args := m.Called(ctx, user)
	return userArg(args, 0), args.Error(1)
}

// Delete is a mock implementation of store.UserStore.Delete.
func (m *MockUserStore) Delete(ctx context.Context, id int) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func userArg(args mock.Arguments, i int) domain.User {
	u, _ := args.Get(i).(domain.User)
	return u
}
