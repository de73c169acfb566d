package dto

// IngestResponse acknowledges a durably queued batch. It promises queuing,
// not persistence; the worker commits events asynchronously.
type IngestResponse struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// DAUPoint is the distinct-user count for one calendar day
type DAUPoint struct {
	Date string `json:"date"`
	DAU  int64  `json:"dau"`
}

// DAUResponse is the daily-active-users series for a date range
type DAUResponse struct {
	From string     `json:"from"`
	To   string     `json:"to"`
	Data []DAUPoint `json:"data"`
}

// EventTypeCount is an event-type frequency
type EventTypeCount struct {
	EventType string `json:"event_type"`
	Count     int64  `json:"count"`
}

// TopEventsResponse ranks event types by count within a date range
type TopEventsResponse struct {
	From  string           `json:"from"`
	To    string           `json:"to"`
	Limit int              `json:"limit"`
	Data  []EventTypeCount `json:"data"`
}

// RetentionPoint is one day of a cohort-retention series
type RetentionPoint struct {
	Day           int     `json:"day"`
	Date          string  `json:"date"`
	RetainedUsers int64   `json:"retained_users"`
	RetentionRate float64 `json:"retention_rate"`
}

// RetentionResponse is the retention series for a single-day cohort
type RetentionResponse struct {
	CohortDate string           `json:"cohort_date"`
	CohortSize int              `json:"cohort_size"`
	Windows    int              `json:"windows"`
	Retention  []RetentionPoint `json:"retention"`
}

// DateRange is the occurred_at span of the store, RFC 3339, null when empty
type DateRange struct {
	Oldest *string `json:"oldest"`
	Newest *string `json:"newest"`
}

// MetricsResponse summarizes the store contents
type MetricsResponse struct {
	TotalEvents   int64            `json:"total_events"`
	TopEventTypes []EventTypeCount `json:"top_event_types"`
	DateRange     DateRange        `json:"date_range"`
}

// ErrorResponse is the error body for all endpoints
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
