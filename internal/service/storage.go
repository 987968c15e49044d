package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// defaultStorageTimeout applies when a service is built without one.
const defaultStorageTimeout = 5 * time.Second

// storageCall runs fn under a per-call deadline and maps the failure for resource.
func storageCall[T any](ctx context.Context, timeout time.Duration, resource string, fn func(context.Context) (T, error)) (T, error) {
	if timeout <= 0 {
		timeout = defaultStorageTimeout
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	out, err := fn(callCtx)
	if err != nil {
		var zero T
		return zero, apperrors.StorageError(resource, err)
	}
	return out, nil
}

// storageExec is storageCall for calls without a result.
func storageExec(ctx context.Context, timeout time.Duration, resource string, fn func(context.Context) error) error {
	_, err := storageCall(ctx, timeout, resource, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// NewTicketID returns an identifier such as TKT-3F9A0C12.
func NewTicketID() string {
	return "TKT-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}
