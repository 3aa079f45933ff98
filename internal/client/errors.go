package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"syscall"
)

// Kind classifies why a call failed.
type Kind string

const (
	KindTimeout Kind = "timeout"
	KindNetwork Kind = "network"
	KindRequest Kind = "request"
	KindStatus  Kind = "status"
	KindDecode  Kind = "decode"
)

// FetchError is returned by every Client call that fails. Status is set only
// for KindStatus.
type FetchError struct {
	Op     string
	Kind   Kind
	Status int
	Body   string
	Err    error
}

func (e *FetchError) Error() string {
	switch {
	case e.Kind == KindStatus && e.Body != "":
		return fmt.Sprintf("gallery %s: http status=%d body=%s", e.Op, e.Status, e.Body)
	case e.Kind == KindStatus:
		return fmt.Sprintf("gallery %s: http status=%d", e.Op, e.Status)
	case e.Err != nil:
		return fmt.Sprintf("gallery %s %s error: %v", e.Op, e.Kind, e.Err)
	default:
		return fmt.Sprintf("gallery %s %s error", e.Op, e.Kind)
	}
}

func (e *FetchError) Unwrap() error { return e.Err }

// IsStatus reports whether err is a FetchError carrying the given status.
func IsStatus(err error, status int) bool {
	var fe *FetchError
	return errors.As(err, &fe) && fe.Kind == KindStatus && fe.Status == status
}

func classifyRequestError(ctx context.Context, op string, err error) error {
	kind := KindRequest
	switch {
	case isTimeoutError(ctx, err):
		kind = KindTimeout
	case isNetworkError(err):
		kind = KindNetwork
	}
	return &FetchError{Op: op, Kind: kind, Err: err}
}

func isTimeoutError(ctx context.Context, err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func isNetworkError(err error) bool {
	if err == nil {
		return false
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		err = urlErr.Err
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	return errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ENETUNREACH) ||
		errors.Is(err, syscall.EHOSTUNREACH)
}
