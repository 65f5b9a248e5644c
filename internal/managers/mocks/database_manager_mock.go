package mocks

import (
	"github.com/stretchr/testify/mock"

	"github.com/skillswap-project/server-beta/internal/interfaces"
)

// MockDatabaseManager is a mock of the DatabaseManager backed by a pgxmock pool in tests.
type MockDatabaseManager struct {
	mock.Mock
}

func (m *MockDatabaseManager) GetPool() interfaces.PgxPoolIface {
	args := m.Called()
	return args.Get(0).(interfaces.PgxPoolIface)
}
