package eventstore

import (
	"context"

	"github.com/sonroyaalmerol/device-calendar/pkg/permission"
)

// AccessHost exposes a Native store's access API as a permission.Host.
// Event-store access covers reading and writing together.
type AccessHost struct {
	Native Native
	Name   string
}

var _ permission.Host = (*AccessHost)(nil)

func (h *AccessHost) ID() string { return h.Name }

func (h *AccessHost) Granted(_ context.Context, _ permission.Capability) (bool, error) {
	return h.Native.AuthorizationStatus(EntityEvent) == Authorized, nil
}

func (h *AccessHost) Request(ctx context.Context, _ permission.Capability) (<-chan permission.Result, error) {
	ch := make(chan permission.Result, 1)
	go func() {
		granted, err := h.Native.RequestAccess(ctx, EntityEvent)
		ch <- permission.Result{Granted: granted, Err: err}
	}()
	return ch, nil
}
