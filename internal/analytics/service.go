// Package analytics tracks lookups of blended recommendations and summarises
// them for the /analytics endpoint.
package analytics

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/gcbaptista/go-recommendation-blender/model"
	"github.com/gcbaptista/go-recommendation-blender/services"
)

const (
	analyticsDataFile = "analytics.json"
	maxEventsToKeep   = 10000 // Keep last 10k events
	topKeysLimit      = 5
)

// Service implements lookup tracking and reporting
type Service struct {
	mutex        sync.RWMutex
	events       []model.LookupEvent
	reader       services.RecommendationReader
	dataFilePath string
	logger       *zap.Logger
	now          func() time.Time
}

var _ services.LookupAnalytics = (*Service)(nil)

// NewService creates an analytics service reporting on reader. Events are
// loaded from and saved to dataDir; an empty dataDir keeps them in memory only.
func NewService(reader services.RecommendationReader, dataDir string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	service := &Service{
		events: make([]model.LookupEvent, 0),
		reader: reader,
		logger: logger.Named("analytics"),
		now:    time.Now,
	}
	if dataDir != "" {
		service.dataFilePath = filepath.Join(dataDir, analyticsDataFile)
	}

	if err := service.loadData(); err != nil {
		service.logger.Warn("failed to load analytics data", zap.Error(err))
	}

	return service
}

// TrackLookup records a new lookup event
func (s *Service) TrackLookup(event model.LookupEvent) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	s.events = append(s.events, event)

	if len(s.events) > maxEventsToKeep {
		s.events = s.events[len(s.events)-maxEventsToKeep:]
	}
}

// GetDashboardData returns complete analytics dashboard data
func (s *Service) GetDashboardData() (model.AnalyticsDashboard, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	now := s.now()
	yesterday := now.Add(-24 * time.Hour)
	lastWeek := now.Add(-7 * 24 * time.Hour)

	last24hEvents := filterEventsByTimeRange(s.events, yesterday, now)
	prev24hEvents := filterEventsByTimeRange(s.events, yesterday.Add(-24*time.Hour), yesterday)
	lastWeekEvents := filterEventsByTimeRange(s.events, lastWeek, now)

	dashboard := model.AnalyticsDashboard{
		TotalLookups:             len(last24hEvents),
		LookupsChangePercent:     calculateChangePercent(len(last24hEvents), len(prev24hEvents)),
		HitRate:                  calculateHitRate(last24hEvents),
		AvgResponseTime:          calculateAvgResponseTime(last24hEvents),
		LookupPerformance24h:     hourlyPerformance(last24hEvents),
		PopularKeys:              popularKeys(lastWeekEvents, false),
		MissedKeys:               popularKeys(lastWeekEvents, true),
		ResponseTimeDistribution: responseTimeDistribution(last24hEvents),
	}
	if s.reader != nil {
		dashboard.StoredKeys = len(s.reader.ListKeys())
		dashboard.ResultVersion = s.reader.ResultVersion()
	}

	return dashboard, nil
}

// filterEventsByTimeRange returns events in (start, end]
func filterEventsByTimeRange(events []model.LookupEvent, start, end time.Time) []model.LookupEvent {
	var filtered []model.LookupEvent
	for _, event := range events {
		if event.Timestamp.After(start) && !event.Timestamp.After(end) {
			filtered = append(filtered, event)
		}
	}
	return filtered
}

func calculateChangePercent(current, previous int) float64 {
	if previous == 0 {
		if current > 0 {
			return 100.0
		}
		return 0.0
	}
	return float64(current-previous) / float64(previous) * 100.0
}

func calculateHitRate(events []model.LookupEvent) float64 {
	if len(events) == 0 {
		return 0
	}
	hits := 0
	for _, event := range events {
		if event.Found {
			hits++
		}
	}
	return float64(hits) / float64(len(events))
}

// calculateAvgResponseTime returns the mean response time in microseconds
func calculateAvgResponseTime(events []model.LookupEvent) int64 {
	if len(events) == 0 {
		return 0
	}

	var total time.Duration
	for _, event := range events {
		total += event.ResponseTime
	}
	return (total / time.Duration(len(events))).Microseconds()
}

func hourlyPerformance(events []model.LookupEvent) []model.LookupPerformanceHourly {
	hourlyData := make(map[int][]model.LookupEvent)
	for _, event := range events {
		hour := event.Timestamp.Hour()
		hourlyData[hour] = append(hourlyData[hour], event)
	}

	performance := make([]model.LookupPerformanceHourly, 0, 24)
	for hour := 0; hour < 24; hour++ {
		bucket := hourlyData[hour]
		performance = append(performance, model.LookupPerformanceHourly{
			Hour:            hour,
			LookupCount:     len(bucket),
			AvgResponseTime: calculateAvgResponseTime(bucket),
		})
	}
	return performance
}

// popularKeys returns the most requested keys. With missesOnly set, only
// lookups of keys absent from the blend are counted.
func popularKeys(events []model.LookupEvent, missesOnly bool) []model.PopularKey {
	counts := make(map[string]*model.PopularKey)
	for _, event := range events {
		if event.Key == "" || (missesOnly && event.Found) {
			continue
		}
		entry, ok := counts[event.Key]
		if !ok {
			entry = &model.PopularKey{Key: event.Key}
			counts[event.Key] = entry
		}
		entry.LookupCount++
		if !event.Found {
			entry.MissCount++
		}
	}

	keys := make([]model.PopularKey, 0, len(counts))
	for _, entry := range counts {
		keys = append(keys, *entry)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].LookupCount != keys[j].LookupCount {
			return keys[i].LookupCount > keys[j].LookupCount
		}
		return keys[i].Key < keys[j].Key
	})

	if len(keys) > topKeysLimit {
		keys = keys[:topKeysLimit]
	}
	return keys
}

func responseTimeDistribution(events []model.LookupEvent) model.ResponseTimeDistribution {
	dist := model.ResponseTimeDistribution{}
	total := len(events)
	if total == 0 {
		return dist
	}

	for _, event := range events {
		switch rt := event.ResponseTime; {
		case rt < time.Millisecond:
			dist.BucketUnder1ms++
		case rt < 5*time.Millisecond:
			dist.Bucket1To5ms++
		case rt < 25*time.Millisecond:
			dist.Bucket5To25ms++
		default:
			dist.Bucket25msPlus++
		}
	}

	dist.PercentageUnder1 = float64(dist.BucketUnder1ms) / float64(total) * 100
	dist.Percentage1To5 = float64(dist.Bucket1To5ms) / float64(total) * 100
	dist.Percentage5To25 = float64(dist.Bucket5To25ms) / float64(total) * 100
	dist.Percentage25Plus = float64(dist.Bucket25msPlus) / float64(total) * 100
	return dist
}

// loadData loads analytics data from file
func (s *Service) loadData() error {
	if s.dataFilePath == "" {
		return nil
	}

	data, err := os.ReadFile(s.dataFilePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read analytics file: %w", err)
	}

	var events []model.LookupEvent
	if err := json.Unmarshal(data, &events); err != nil {
		return fmt.Errorf("failed to unmarshal analytics data: %w", err)
	}
	s.events = events
	return nil
}

// Save writes the tracked events to the data directory, if one is configured
func (s *Service) Save() error {
	if s.dataFilePath == "" {
		return nil
	}

	s.mutex.RLock()
	data, err := json.MarshalIndent(s.events, "", "  ")
	s.mutex.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to marshal analytics data: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.dataFilePath), 0750); err != nil {
		return fmt.Errorf("failed to create analytics directory: %w", err)
	}
	tmp := s.dataFilePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write analytics file: %w", err)
	}
	if err := os.Rename(tmp, s.dataFilePath); err != nil {
		return fmt.Errorf("failed to replace analytics file: %w", err)
	}
	return nil
}
