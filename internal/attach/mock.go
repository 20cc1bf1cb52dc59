package attach

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockResolver struct {
	mock.Mock
}

func (m *MockResolver) Upload(ctx context.Context, blob string) (string, error) {
	args := m.Called(ctx, blob)
	return args.String(0), args.Error(1)
}
