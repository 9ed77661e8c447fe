package contract

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockGitClient is a mock implementation of GitClient for testing.
type MockGitClient struct {
	mock.Mock
}

var _ GitClient = &MockGitClient{} // Compile-time check

// Run implements the GitClient interface.
func (m *MockGitClient) Run(ctx context.Context, repoPath string, args ...string) ([]byte, error) {
	mockArgs := []any{ctx, repoPath}
	for _, arg := range args {
		mockArgs = append(mockArgs, arg)
	}
	ret := m.Called(mockArgs...)
	output, _ := ret.Get(0).([]byte)
	return output, ret.Error(1)
}

// GetRepoRoot implements the GitClient interface.
func (m *MockGitClient) GetRepoRoot(ctx context.Context, contextPath string) (string, error) {
	ret := m.Called(ctx, contextPath)
	root, _ := ret.Get(0).(string)
	return root, ret.Error(1)
}

// GetLog implements the GitClient interface.
func (m *MockGitClient) GetLog(ctx context.Context, repoPath string, path string) (string, error) {
	ret := m.Called(ctx, repoPath, path)
	text, _ := ret.Get(0).(string)
	return text, ret.Error(1)
}

// MockFileLister is a mock implementation of FileLister for testing.
type MockFileLister struct {
	mock.Mock
}

var _ FileLister = &MockFileLister{} // Compile-time check

// ListFiles implements the FileLister interface.
func (m *MockFileLister) ListFiles(ctx context.Context, repoPath string) ([]string, error) {
	ret := m.Called(ctx, repoPath)
	files, _ := ret.Get(0).([]string)
	return files, ret.Error(1)
}
