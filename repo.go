package focusmomo

import "context"

// TimerStateRepo persists the single timer record. GetTimerState returns ErrNotFound
// before the first save.
type TimerStateRepo interface {
	GetTimerState(context.Context) (TimerState, error)
	SaveTimerState(context.Context, TimerState) error
}

type LedgerRepo interface {
	// ListAnalyticsSessions returns every entry oldest first.
	ListAnalyticsSessions(context.Context) ([]AnalyticsSession, error)
	InsertAnalyticsSession(context.Context, AnalyticsSession) error
	UpdateAnalyticsSession(context.Context, AnalyticsSession) error
	DeleteAnalyticsSession(ctx context.Context, id string) error
	DeleteAllAnalyticsSessions(context.Context) error
	// PruneAnalyticsSessions keeps the newest keep entries.
	PruneAnalyticsSessions(ctx context.Context, keep int) (int64, error)

	// GetDayBucket returns an empty bucket for day when none is stored.
	GetDayBucket(ctx context.Context, day string) (DayBucket, error)
	UpsertDayBucket(context.Context, DayBucket) error
	// ListDayBuckets returns buckets with from <= day <= to, oldest first.
	ListDayBuckets(ctx context.Context, from, to string) ([]DayBucket, error)
	PruneDayBuckets(ctx context.Context, before string) (int64, error)
}

// CategoryStore is the blocklist category collaborator. A nil id clears the active category.
type CategoryStore interface {
	SetActiveCategory(ctx context.Context, id *CategoryID) error
	GetActiveCategory(context.Context) (*CategoryID, error)
}

type CategoryRepo interface {
	CategoryStore
	UpsertCategory(context.Context, CategoryID, CategoryRecord) (ExistingCategoryRecord, error)
	GetCategory(context.Context, CategoryID) (ExistingCategoryRecord, error)
	ListCategories(context.Context) ([]ExistingCategoryRecord, error)
}
