package vasp

import (
	"context"
	"net"

	"github.com/pkg/errors"
)

var (
	ErrTimeout    = errors.New("request timed out")
	ErrConnection = errors.New("connection failure")
	ErrTransport  = errors.New("transport error")
)

// classify maps a transport error from net/http onto one of the typed failures.
func classify(err error) error {
	if err == nil {
		return nil
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return errors.Wrap(ErrTimeout, err.Error())
	}

	var opErr *net.OpError
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) || (errors.As(err, &opErr) && opErr.Op == "dial") {
		return errors.Wrap(ErrConnection, err.Error())
	}

	return errors.Wrap(ErrTransport, err.Error())
}
