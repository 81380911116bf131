package jobscheduler

import "context"

type Repository interface {
	RecordEvent(ctx context.Context, event TaskEvent) error
}
