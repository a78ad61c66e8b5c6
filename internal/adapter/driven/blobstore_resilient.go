package driven

import (
	"context"
	"errors"
	"fmt"

	"github.com/mlhkhariom/streamgate/circuitbreaker"
	"github.com/mlhkhariom/streamgate/internal/port/driven"
	"github.com/mlhkhariom/streamgate/internal/storedfile"
)

// ResilientBlobStore decorates a BlobStore with a circuit breaker so a
// flapping remote API fails fast instead of tying up every request in
// timeouts. A rejected call surfaces as the same error class a remote
// failure would, so callers need no breaker awareness. Unconfigured
// credentials bypass the breaker: they are a local condition, not a remote
// failure.
type ResilientBlobStore struct {
	inner   driven.BlobStore
	breaker circuitbreaker.CircuitBreaker
}

// NewResilientBlobStore wraps the given store with the given breaker.
func NewResilientBlobStore(inner driven.BlobStore, breaker circuitbreaker.CircuitBreaker) *ResilientBlobStore {
	return &ResilientBlobStore{
		inner:   inner,
		breaker: breaker,
	}
}

// execute runs fn through the breaker, mapping breaker rejections to the
// remote-failure class. Unconfigured errors pass through without counting
// as remote failures.
func (s *ResilientBlobStore) execute(class error, fn func() error) error {
	var unconfigured error

	err := s.breaker.Execute(func() error {
		if err := fn(); err != nil {
			if errors.Is(err, storedfile.ErrUnconfigured) {
				unconfigured = err
				return nil
			}
			return err
		}
		return nil
	})

	if unconfigured != nil {
		return unconfigured
	}
	if errors.Is(err, circuitbreaker.ErrCircuitOpen) || errors.Is(err, circuitbreaker.ErrHalfOpenLimitReached) {
		return fmt.Errorf("%w: %v", class, err)
	}
	return err
}

// Upload pushes bytes to the remote store through the circuit breaker.
func (s *ResilientBlobStore) Upload(ctx context.Context, fileName, mimeType string, data []byte) (storedfile.RemoteHandle, error) {
	var handle storedfile.RemoteHandle

	err := s.execute(storedfile.ErrUploadFailed, func() error {
		h, err := s.inner.Upload(ctx, fileName, mimeType, data)
		if err != nil {
			return err
		}
		handle = h
		return nil
	})
	if err != nil {
		return storedfile.RemoteHandle{}, err
	}

	return handle, nil
}

// FetchByHandle retrieves bytes from the remote store through the circuit breaker.
func (s *ResilientBlobStore) FetchByHandle(ctx context.Context, h storedfile.RemoteHandle) ([]byte, error) {
	var data []byte

	err := s.execute(storedfile.ErrRemoteUnavailable, func() error {
		d, err := s.inner.FetchByHandle(ctx, h)
		if err != nil {
			return err
		}
		data = d
		return nil
	})
	if err != nil {
		return nil, err
	}

	return data, nil
}

// Delete removes a remote object through the circuit breaker.
func (s *ResilientBlobStore) Delete(ctx context.Context, h storedfile.RemoteHandle) error {
	return s.execute(storedfile.ErrRemoteUnavailable, func() error {
		return s.inner.Delete(ctx, h)
	})
}

// Ping checks remote store reachability. It intentionally bypasses the
// breaker so health checks keep observing the real remote state while the
// circuit is open.
func (s *ResilientBlobStore) Ping(ctx context.Context) error {
	return s.inner.Ping(ctx)
}
