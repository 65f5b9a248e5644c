package mocks

import "github.com/stretchr/testify/mock"

// MockMailManager is a mock of the MailManager.
type MockMailManager struct {
	mock.Mock
}

func (m *MockMailManager) SendVerificationMail(email, name, otp string) error {
	args := m.Called(email, name, otp)
	return args.Error(0)
}

func (m *MockMailManager) SendWelcomeMail(email, name string) error {
	args := m.Called(email, name)
	return args.Error(0)
}

func (m *MockMailManager) SendBroadcastMail(email, name, message string) error {
	args := m.Called(email, name, message)
	return args.Error(0)
}
