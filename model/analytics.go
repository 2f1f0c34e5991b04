package model

import "time"

// LookupEvent records a single GET /recommendations/:key request
type LookupEvent struct {
	Key          string        `json:"key"`
	Found        bool          `json:"found"`
	ValueCount   int           `json:"value_count"`
	ResponseTime time.Duration `json:"response_time"`
	Timestamp    time.Time     `json:"timestamp"`
}

// PopularKey represents aggregated lookups for one key
type PopularKey struct {
	Key         string `json:"key"`
	LookupCount int    `json:"lookup_count"`
	MissCount   int    `json:"miss_count"`
}

// ResponseTimeDistribution represents response time distribution buckets
type ResponseTimeDistribution struct {
	BucketUnder1ms    int     `json:"bucket_under_1ms"`
	Bucket1To5ms      int     `json:"bucket_1_5ms"`
	Bucket5To25ms     int     `json:"bucket_5_25ms"`
	Bucket25msPlus    int     `json:"bucket_25ms_plus"`
	PercentageUnder1  float64 `json:"percentage_under_1"`
	Percentage1To5    float64 `json:"percentage_1_5"`
	Percentage5To25   float64 `json:"percentage_5_25"`
	Percentage25Plus  float64 `json:"percentage_25_plus"`
}

// LookupPerformanceHourly represents hourly lookup performance data
type LookupPerformanceHourly struct {
	Hour            int   `json:"hour"`
	LookupCount     int   `json:"lookup_count"`
	AvgResponseTime int64 `json:"avg_response_time"` // in microseconds
}

// AnalyticsDashboard summarises how the stored blend is being read
type AnalyticsDashboard struct {
	// Summary metrics
	TotalLookups         int     `json:"total_lookups"`
	LookupsChangePercent float64 `json:"lookups_change_percent"`
	HitRate              float64 `json:"hit_rate"`
	AvgResponseTime      int64   `json:"avg_response_time"` // in microseconds
	StoredKeys           int     `json:"stored_keys"`
	ResultVersion        uint64  `json:"result_version"`

	// Detailed analytics
	LookupPerformance24h     []LookupPerformanceHourly `json:"lookup_performance_24h"`
	PopularKeys              []PopularKey              `json:"popular_keys"`
	MissedKeys               []PopularKey              `json:"missed_keys"`
	ResponseTimeDistribution ResponseTimeDistribution  `json:"response_time_distribution"`
}
