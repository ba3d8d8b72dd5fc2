package service

import (
	"context"
	"testing"
	"time"
)

var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time {
	return testNow
}

func strPtr(s string) *string {
	return &s
}

// mockUnitOfWork wires a factory returning one unit of work over fresh repository mocks.
// Commit is only expected when committed is true.
func mockUnitOfWork(t *testing.T, ctx context.Context, committed bool) (*MockUnitOfWorkFactory, *MockUnitOfWork, *MockRepositories) {
	t.Helper()

	repos := NewMockRepositories()
	mockUoW := new(MockUnitOfWork)
	mockUoW.SetRepositories(repos)

	mockFactory := new(MockUnitOfWorkFactory)
	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)
	if committed {
		mockUoW.On("Commit").Return(nil)
	}

	t.Cleanup(func() {
		mockFactory.AssertExpectations(t)
		mockUoW.AssertExpectations(t)
		repos.AssertExpectations(t)
		if !committed {
			mockUoW.AssertNotCalled(t, "Commit")
		}
	})

	return mockFactory, mockUoW, repos
}
