package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/aykutaslan/event-analytics-pipeline/internal/domain"
	"github.com/aykutaslan/event-analytics-pipeline/internal/dto"
	"github.com/aykutaslan/event-analytics-pipeline/internal/queue"
	"github.com/aykutaslan/event-analytics-pipeline/internal/repository"
)

const (
	dateLayout = "2006-01-02"

	maxTopEventsLimit = 100
	maxRetentionDays  = 12
	metricsTopTypes   = 5
)

// ErrInvalidQuery marks caller input errors on analytics operations so the
// handler can map them to a 400 response.
var ErrInvalidQuery = errors.New("invalid query")

// EventService implements ingestion and the analytics engine. Ingestion only
// publishes to the durable queue; the persistence worker is the single write
// path to the store. Analytics operations are stateless and recomputed per
// call.
type EventService struct {
	publisher    queue.Publisher
	repository   repository.EventRepository
	maxBatchSize int
	log          *zap.Logger
}

// NewEventService creates a new event service
func NewEventService(publisher queue.Publisher, repo repository.EventRepository, maxBatchSize int, log *zap.Logger) *EventService {
	return &EventService{
		publisher:    publisher,
		repository:   repo,
		maxBatchSize: maxBatchSize,
		log:          log,
	}
}

// IngestBatch validates a batch and publishes every event to the queue. Any
// validation failure rejects the whole batch before a single publish, so a
// 400 never has partial side effects. A publish failure fails the request;
// events already published will be persisted and the client's retry of the
// remainder is deduplicated by the store.
func (s *EventService) IngestBatch(ctx context.Context, events []domain.EventInput) (int, error) {
	if len(events) == 0 {
		return 0, domain.ErrEmptyBatch
	}
	if len(events) > s.maxBatchSize {
		return 0, fmt.Errorf("%w: %d events, maximum is %d", domain.ErrBatchTooLarge, len(events), s.maxBatchSize)
	}

	for i := range events {
		if err := events[i].Validate(); err != nil {
			var verr *domain.ValidationError
			if errors.As(err, &verr) {
				return 0, verr.AtIndex(i)
			}
			return 0, err
		}
	}

	for i := range events {
		if err := s.publisher.Publish(ctx, &events[i]); err != nil {
			s.log.Error("Failed to publish event",
				zap.Int("index", i),
				zap.String("event_id", events[i].EventID),
				zap.Error(err))
			return 0, fmt.Errorf("failed to publish event %d: %w", i, err)
		}
	}

	s.log.Info("Batch accepted", zap.Int("count", len(events)))
	return len(events), nil
}

// DailyActiveUsers counts distinct users per calendar day of occurred_at
// within [fromDate, toDate], both inclusive. Days without events are
// omitted, not zero-filled.
func (s *EventService) DailyActiveUsers(ctx context.Context, fromDate, toDate string) (*dto.DAUResponse, error) {
	from, err := parseDate(fromDate)
	if err != nil {
		return nil, err
	}
	to, err := parseDate(toDate)
	if err != nil {
		return nil, err
	}
	if from.After(to) {
		return nil, fmt.Errorf("%w: from_date must not be after to_date", ErrInvalidQuery)
	}

	rows, err := s.repository.DailyActiveUsers(ctx, from, to.AddDate(0, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("failed to query daily active users: %w", err)
	}

	data := make([]dto.DAUPoint, 0, len(rows))
	for _, row := range rows {
		data = append(data, dto.DAUPoint{Date: row.Date, DAU: row.DAU})
	}

	return &dto.DAUResponse{From: fromDate, To: toDate, Data: data}, nil
}

// TopEvents ranks event types by count within [fromDate, toDate]. Ties break
// on event type ascending, so equal counts always rank in the same order.
func (s *EventService) TopEvents(ctx context.Context, fromDate, toDate string, limit int) (*dto.TopEventsResponse, error) {
	if limit < 1 || limit > maxTopEventsLimit {
		return nil, fmt.Errorf("%w: limit must be between 1 and %d", ErrInvalidQuery, maxTopEventsLimit)
	}

	from, err := parseDate(fromDate)
	if err != nil {
		return nil, err
	}
	to, err := parseDate(toDate)
	if err != nil {
		return nil, err
	}
	if from.After(to) {
		return nil, fmt.Errorf("%w: from_date must not be after to_date", ErrInvalidQuery)
	}

	rows, err := s.repository.TopEventTypes(ctx, from, to.AddDate(0, 0, 1), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top event types: %w", err)
	}

	return &dto.TopEventsResponse{
		From:  fromDate,
		To:    toDate,
		Limit: limit,
		Data:  toEventTypeCounts(rows),
	}, nil
}

// Retention computes cohort retention for the users active on startDate.
// Day k tests membership only against the original cohort, not all users
// active that day. An empty cohort short-circuits without further queries.
// The series is always fully populated for day = 1..windows.
func (s *EventService) Retention(ctx context.Context, startDate string, windows int) (*dto.RetentionResponse, error) {
	if windows < 1 || windows > maxRetentionDays {
		return nil, fmt.Errorf("%w: windows must be between 1 and %d", ErrInvalidQuery, maxRetentionDays)
	}

	cohortStart, err := parseDate(startDate)
	if err != nil {
		return nil, err
	}

	cohort, err := s.repository.DistinctUsers(ctx, cohortStart, cohortStart.AddDate(0, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("failed to build cohort: %w", err)
	}

	response := &dto.RetentionResponse{
		CohortDate: startDate,
		CohortSize: len(cohort),
		Windows:    windows,
		Retention:  []dto.RetentionPoint{},
	}

	if len(cohort) == 0 {
		return response, nil
	}

	for day := 1; day <= windows; day++ {
		windowStart := cohortStart.AddDate(0, 0, day)
		windowEnd := windowStart.AddDate(0, 0, 1)

		retained, err := s.repository.RetainedUsers(ctx, windowStart, windowEnd, cohort)
		if err != nil {
			return nil, fmt.Errorf("failed to query retention for day %d: %w", day, err)
		}

		rate := float64(retained) / float64(len(cohort)) * 100
		response.Retention = append(response.Retention, dto.RetentionPoint{
			Day:           day,
			Date:          windowStart.Format(dateLayout),
			RetainedUsers: retained,
			RetentionRate: math.Round(rate*100) / 100,
		})
	}

	return response, nil
}

// Metrics summarizes the store: total events, top event types, and the
// occurred_at span, each independently queried.
func (s *EventService) Metrics(ctx context.Context) (*dto.MetricsResponse, error) {
	total, err := s.repository.TotalEvents(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count events: %w", err)
	}

	topTypes, err := s.repository.TopEventTypes(ctx, time.Time{}, maxTimestamp(), metricsTopTypes)
	if err != nil {
		return nil, fmt.Errorf("failed to query top event types: %w", err)
	}

	response := &dto.MetricsResponse{
		TotalEvents:   total,
		TopEventTypes: toEventTypeCounts(topTypes),
	}

	oldest, ok, err := s.repository.OldestEvent(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query oldest event: %w", err)
	}
	if ok {
		formatted := oldest.Format(time.RFC3339)
		response.DateRange.Oldest = &formatted
	}

	newest, ok, err := s.repository.NewestEvent(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query newest event: %w", err)
	}
	if ok {
		formatted := newest.Format(time.RFC3339)
		response.DateRange.Newest = &formatted
	}

	return response, nil
}

func parseDate(value string) (time.Time, error) {
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid date %q, use YYYY-MM-DD", ErrInvalidQuery, value)
	}
	return t.UTC(), nil
}

func toEventTypeCounts(rows []repository.EventTypeCount) []dto.EventTypeCount {
	counts := make([]dto.EventTypeCount, 0, len(rows))
	for _, row := range rows {
		counts = append(counts, dto.EventTypeCount{EventType: row.EventType, Count: row.Count})
	}
	return counts
}

func maxTimestamp() time.Time {
	return time.Date(9999, 12, 31, 23, 59, 59, 0, time.UTC)
}
