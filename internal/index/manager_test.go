package index

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"pricegrid/server/internal/models"
)

// MockFetcher is a mock implementation of the RecordFetcher interface
type MockFetcher struct {
	mock.Mock
}

func (m *MockFetcher) FetchRecords(bbox *models.BoundingBox, filter models.RecordFilter) ([]models.PropertyRecord, error) {
	args := m.Called(bbox, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.PropertyRecord), args.Error(1)
}

func TestManagerStartsWithEmptyIndex(t *testing.T) {
	manager := NewManager(&MockFetcher{}, 0.05, nil)

	ix := manager.Current()
	require.NotNil(t, ix, "readers must always see a consistent index")
	assert.Equal(t, 0, ix.Size())
	assert.Equal(t, int64(0), manager.Version())
}

func TestManagerRebuildSwapsIndex(t *testing.T) {
	records := []models.PropertyRecord{
		{ID: 1, Latitude: 53.34, Longitude: -6.26, Price: 300000},
		{ID: 2, Latitude: 51.90, Longitude: -8.47, Price: 250000},
	}

	fetcher := &MockFetcher{}
	fetcher.On("FetchRecords", (*models.BoundingBox)(nil), models.RecordFilter{}).Return(records, nil)

	manager := NewManager(fetcher, 0.05, nil)
	before := manager.Current()

	require.NoError(t, manager.Rebuild())

	after := manager.Current()
	assert.NotSame(t, before, after, "rebuild must publish a new index, not mutate in place")
	assert.Equal(t, 2, after.Size())
	assert.Equal(t, int64(1), manager.Version())
	assert.Equal(t, 0, before.Size(), "previous version stays intact for readers holding it")

	fetcher.AssertExpectations(t)
}

func TestManagerRebuildKeepsOldIndexOnFailure(t *testing.T) {
	fetcher := &MockFetcher{}
	fetcher.On("FetchRecords", (*models.BoundingBox)(nil), models.RecordFilter{}).
		Return([]models.PropertyRecord{{ID: 1, Latitude: 53.3, Longitude: -6.3}}, nil).Once()
	fetcher.On("FetchRecords", (*models.BoundingBox)(nil), models.RecordFilter{}).
		Return(nil, errors.New("store unavailable")).Once()

	manager := NewManager(fetcher, 0.05, nil)
	require.NoError(t, manager.Rebuild())
	good := manager.Current()

	err := manager.Rebuild()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to fetch records")
	assert.Same(t, good, manager.Current(), "a failed rebuild must not replace the index")
	assert.Equal(t, int64(1), manager.Version())
}

func TestManagerStartSchedulesRebuilds(t *testing.T) {
	fetcher := &MockFetcher{}
	fetcher.On("FetchRecords", (*models.BoundingBox)(nil), models.RecordFilter{}).
		Return([]models.PropertyRecord{}, nil)

	manager := NewManager(fetcher, 0.05, nil)
	require.NoError(t, manager.Start("@every 1h"))
	defer manager.Stop()

	assert.Equal(t, int64(1), manager.Version(), "Start performs the initial build")
}

func TestManagerStartRejectsBadSchedule(t *testing.T) {
	fetcher := &MockFetcher{}
	fetcher.On("FetchRecords", (*models.BoundingBox)(nil), models.RecordFilter{}).
		Return([]models.PropertyRecord{}, nil)

	manager := NewManager(fetcher, 0.05, nil)
	err := manager.Start("not a cron spec")
	assert.Error(t, err)
}
