package drive

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockClient is a testify mock of Client, shared by the aggregator,
// explorer, and handler tests.
type MockClient struct {
	mock.Mock
}

func (m *MockClient) ListItems(ctx context.Context, opts ListOptions) (ListPage, error) {
	args := m.Called(ctx, opts)
	return args.Get(0).(ListPage), args.Error(1)
}

func (m *MockClient) GetItem(ctx context.Context, id string) (ItemRecord, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(ItemRecord), args.Error(1)
}
