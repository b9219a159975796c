// File: internal/mocks/mocks.go
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/xkilldash9x/intake-cli/internal/intake"
	"github.com/xkilldash9x/intake-cli/internal/notify"
	"github.com/xkilldash9x/intake-cli/internal/persona"
)

// MockExporter is a mock implementation of runner.Exporter.
type MockExporter struct {
	mock.Mock
}

func (m *MockExporter) Append(ctx context.Context, p persona.Profile) (string, error) {
	args := m.Called(ctx, p)
	return args.String(0), args.Error(1)
}

// MockArchiver is a mock implementation of runner.Archiver.
type MockArchiver struct {
	mock.Mock
}

func (m *MockArchiver) Upload(ctx context.Context, localPath string) (string, error) {
	args := m.Called(ctx, localPath)
	return args.String(0), args.Error(1)
}

// MockNotifier is a mock implementation of runner.Notifier.
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Send(ctx context.Context, n notify.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

// MockFiller is a mock implementation of runner.Filler.
type MockFiller struct {
	mock.Mock
}

func (m *MockFiller) Run(ctx context.Context, p persona.Profile) (intake.Report, error) {
	args := m.Called(ctx, p)
	report, _ := args.Get(0).(intake.Report)
	return report, args.Error(1)
}
