package contract

import (
	"context"

	"github.com/prelev/prelev/schema"
	"github.com/stretchr/testify/mock"
)

// MockSeriesResolver is a testify mock for SeriesResolver.
type MockSeriesResolver struct {
	mock.Mock
}

var _ SeriesResolver = &MockSeriesResolver{}

// Resolve mocks the Resolve method.
func (m *MockSeriesResolver) Resolve(ctx context.Context, query schema.SeriesQuery) ([]schema.SeriesDescriptor, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]schema.SeriesDescriptor), args.Error(1)
}

// MockValueStore is a testify mock for ValueStore.
type MockValueStore struct {
	mock.Mock
}

var _ ValueStore = &MockValueStore{}

// Fetch mocks the Fetch method.
func (m *MockValueStore) Fetch(ctx context.Context, seriesID string, opts schema.FetchOptions) ([]schema.ValueDocument, error) {
	args := m.Called(ctx, seriesID, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]schema.ValueDocument), args.Error(1)
}

// MockVersionedResolver is a MockSeriesResolver that also reports a data version.
type MockVersionedResolver struct {
	MockSeriesResolver
}

var _ DataVersioner = &MockVersionedResolver{}

// DataVersion mocks the DataVersion method.
func (m *MockVersionedResolver) DataVersion(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}
