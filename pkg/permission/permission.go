// Package permission gates calendar operations on the read and write
// capabilities granted by the platform.
package permission

import (
	"context"
	"errors"
	"strings"
)

// Capability is a set of calendar permissions.
type Capability uint8

const (
	Read Capability = 1 << iota
	Write

	ReadWrite = Read | Write
)

func (c Capability) Has(o Capability) bool { return c&o == o }

// Each calls fn for every single capability in c, read first.
func (c Capability) Each(fn func(Capability)) {
	for _, one := range []Capability{Read, Write} {
		if c.Has(one) {
			fn(one)
		}
	}
}

func (c Capability) String() string {
	var parts []string
	c.Each(func(one Capability) {
		switch one {
		case Read:
			parts = append(parts, "read")
		case Write:
			parts = append(parts, "write")
		}
	})
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "+")
}

// Result is the single completion of a permission request. Err is set only
// when the platform call itself faulted; a user refusal is Granted=false.
type Result struct {
	Granted bool
	Err     error
}

// Host is the foreground execution context permissions are checked from and
// prompted on. Implementations must send exactly one Result on the channel
// returned by Request.
type Host interface {
	ID() string
	Granted(ctx context.Context, c Capability) (bool, error)
	Request(ctx context.Context, missing Capability) (<-chan Result, error)
}

var ErrRequestInProgress = errors.New("permission request already in progress")

// ErrRefused is returned by Gate.Require when the user declines.
var ErrRefused = errors.New("permission refused")
