package srv

import "context"

// cleanupService holds a resource that only needs closing.
type cleanupService struct {
	cleanup func() error
}

func (c *cleanupService) Start(ctx context.Context) error {
	return nil
}

func (c *cleanupService) Shutdown(ctx context.Context) error {
	if c.cleanup != nil {
		return c.cleanup()
	}
	return nil
}

// NewCleanup wraps a closer (database pool, log writer) as a Service.
func NewCleanup(fn func() error) Service {
	return &cleanupService{cleanup: fn}
}
