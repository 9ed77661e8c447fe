package iostore

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/huangsam/commitmap/internal/contract"
	"github.com/huangsam/commitmap/schema"
)

// MockStoreManager is a mock implementation of StoreManager for testing.
type MockStoreManager struct {
	mock.Mock
}

var _ contract.StoreManager = &MockStoreManager{} // Compile-time check

// GetRelationStore implements the StoreManager interface.
func (m *MockStoreManager) GetRelationStore() contract.RelationStore {
	ret := m.Called()
	store, _ := ret.Get(0).(contract.RelationStore)
	return store
}

// MockRelationStore is a mock implementation of RelationStore for testing.
type MockRelationStore struct {
	mock.Mock
}

var _ contract.RelationStore = &MockRelationStore{} // Compile-time check

// UpsertCommits implements the RelationStore interface.
func (m *MockRelationStore) UpsertCommits(ctx context.Context, batch []schema.CommitRecord) error {
	return m.Called(ctx, batch).Error(0)
}

// UpsertFiles implements the RelationStore interface.
func (m *MockRelationStore) UpsertFiles(ctx context.Context, batch []string) error {
	return m.Called(ctx, batch).Error(0)
}

// UpsertRelations implements the RelationStore interface.
func (m *MockRelationStore) UpsertRelations(ctx context.Context, batch []schema.Relation) error {
	return m.Called(ctx, batch).Error(0)
}

// Reset implements the RelationStore interface.
func (m *MockRelationStore) Reset(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// RecordRun implements the RelationStore interface.
func (m *MockRelationStore) RecordRun(ctx context.Context, summary *schema.RunSummary) error {
	return m.Called(ctx, summary).Error(0)
}

// FileCommits implements the RelationStore interface.
func (m *MockRelationStore) FileCommits(ctx context.Context, path string, limit int) ([]schema.CommitRecord, error) {
	args := m.Called(ctx, path, limit)
	commits, _ := args.Get(0).([]schema.CommitRecord)
	return commits, args.Error(1)
}

// CommitFiles implements the RelationStore interface.
func (m *MockRelationStore) CommitFiles(ctx context.Context, hash string) ([]string, error) {
	args := m.Called(ctx, hash)
	files, _ := args.Get(0).([]string)
	return files, args.Error(1)
}

// AllCommits implements the RelationStore interface.
func (m *MockRelationStore) AllCommits(ctx context.Context) ([]schema.CommitRecord, error) {
	args := m.Called(ctx)
	commits, _ := args.Get(0).([]schema.CommitRecord)
	return commits, args.Error(1)
}

// AllFiles implements the RelationStore interface.
func (m *MockRelationStore) AllFiles(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	files, _ := args.Get(0).([]string)
	return files, args.Error(1)
}

// AllRelations implements the RelationStore interface.
func (m *MockRelationStore) AllRelations(ctx context.Context) ([]schema.Relation, error) {
	args := m.Called(ctx)
	rels, _ := args.Get(0).([]schema.Relation)
	return rels, args.Error(1)
}

// AllRuns implements the RelationStore interface.
func (m *MockRelationStore) AllRuns(ctx context.Context) ([]schema.RunRecord, error) {
	args := m.Called(ctx)
	runs, _ := args.Get(0).([]schema.RunRecord)
	return runs, args.Error(1)
}

// GetStatus implements the RelationStore interface.
func (m *MockRelationStore) GetStatus(ctx context.Context) (schema.StoreStatus, error) {
	args := m.Called(ctx)
	return args.Get(0).(schema.StoreStatus), args.Error(1)
}

// Close implements the RelationStore interface.
func (m *MockRelationStore) Close() error {
	return m.Called().Error(0)
}
