package contract

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/worldfishcenter/landings/schema"
)

// MockMetricSource is a mock implementation of MetricSource for testing.
type MockMetricSource struct {
	mock.Mock
}

var _ MetricSource = &MockMetricSource{} // Compile-time check

// Records implements the MetricSource interface.
func (m *MockMetricSource) Records(ctx context.Context) ([]schema.MetricRecord, error) {
	ret := m.Called(ctx)
	records, _ := ret.Get(0).([]schema.MetricRecord)
	return records, ret.Error(1)
}

// Kind implements the MetricSource interface.
func (m *MockMetricSource) Kind() schema.DataSource {
	ret := m.Called()
	kind, _ := ret.Get(0).(schema.DataSource)
	return kind
}

// Supports implements the MetricSource interface.
func (m *MockMetricSource) Supports(metric schema.MetricTag) error {
	ret := m.Called(metric)
	return ret.Error(0)
}
