// Package index maintains a process-wide spatial index over the full record
// snapshot. Rebuilds are single-writer and publish a new immutable index by
// atomic pointer swap, so concurrent readers never observe a partially built
// index.
package index

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"pricegrid/server/internal/models"
	"pricegrid/server/internal/spatial"
)

// RecordFetcher is the slice of the record store the manager depends on.
type RecordFetcher interface {
	FetchRecords(bbox *models.BoundingBox, filter models.RecordFilter) ([]models.PropertyRecord, error)
}

// Manager owns the current index version and its rebuild schedule.
type Manager struct {
	fetcher  RecordFetcher
	logger   *logrus.Logger
	cellSize float64

	current atomic.Pointer[spatial.Index]
	version atomic.Int64

	rebuildMu sync.Mutex
	cron      *cron.Cron
}

// NewManager creates a manager with an empty initial index, so readers have a
// consistent view even before the first rebuild completes.
func NewManager(fetcher RecordFetcher, cellSize float64, logger *logrus.Logger) *Manager {
	if logger == nil {
		logger = logrus.New()
	}

	m := &Manager{
		fetcher:  fetcher,
		logger:   logger,
		cellSize: cellSize,
	}
	m.current.Store(spatial.NewIndex(nil, cellSize))
	return m
}

// Current returns the latest fully built index. The returned index is
// immutable and safe to query from any goroutine.
func (m *Manager) Current() *spatial.Index {
	return m.current.Load()
}

// Version returns the number of completed rebuilds.
func (m *Manager) Version() int64 {
	return m.version.Load()
}

// Rebuild fetches the full record snapshot, builds a fresh index and swaps it
// in. Concurrent calls serialize; readers keep the previous version until the
// swap happens.
func (m *Manager) Rebuild() error {
	m.rebuildMu.Lock()
	defer m.rebuildMu.Unlock()

	records, err := m.fetcher.FetchRecords(nil, models.RecordFilter{})
	if err != nil {
		return fmt.Errorf("failed to fetch records for index rebuild: %w", err)
	}

	next := spatial.NewIndex(records, m.cellSize)
	m.current.Store(next)
	version := m.version.Add(1)

	m.logger.WithFields(logrus.Fields{
		"records": next.Size(),
		"version": version,
	}).Info("Rebuilt spatial index")

	return nil
}

// Start performs an initial build and schedules periodic rebuilds using the
// given cron spec (e.g. "@every 15m").
func (m *Manager) Start(schedule string) error {
	if err := m.Rebuild(); err != nil {
		return err
	}

	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		if err := m.Rebuild(); err != nil {
			m.logger.WithError(err).Error("Scheduled index rebuild failed")
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule index rebuild: %w", err)
	}

	c.Start()
	m.cron = c
	return nil
}

// Stop cancels the rebuild schedule and waits for a running job to finish.
func (m *Manager) Stop() {
	if m.cron != nil {
		<-m.cron.Stop().Done()
	}
}
