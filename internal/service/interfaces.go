package service

import (
	"context"

	"github.com/aykutaslan/event-analytics-pipeline/internal/domain"
	"github.com/aykutaslan/event-analytics-pipeline/internal/dto"
)

// EventServicer defines the interface for ingestion and analytics operations
type EventServicer interface {
	IngestBatch(ctx context.Context, events []domain.EventInput) (int, error)
	DailyActiveUsers(ctx context.Context, fromDate, toDate string) (*dto.DAUResponse, error)
	TopEvents(ctx context.Context, fromDate, toDate string, limit int) (*dto.TopEventsResponse, error)
	Retention(ctx context.Context, startDate string, windows int) (*dto.RetentionResponse, error)
	Metrics(ctx context.Context) (*dto.MetricsResponse, error)
}
