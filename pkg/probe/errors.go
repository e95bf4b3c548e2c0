package probe

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"
)

// ErrorKind classifies a transport-level probe failure.
type ErrorKind string

const (
	KindTimeout           ErrorKind = "timeout"
	KindConnectionRefused ErrorKind = "connection-refused"
	KindDNS               ErrorKind = "dns"
	KindTLS               ErrorKind = "tls"
	KindOther             ErrorKind = "other"
)

// TransportError is a typed per-probe failure. A single transport error is
// never fatal to the assessment; it is recorded on the response and may
// contribute to an endpoint's fail-fast streak.
type TransportError struct {
	Kind ErrorKind
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %s: %v", e.Kind, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// classifyTransport maps a client error onto an ErrorKind.
func classifyTransport(err error) *TransportError {
	if err == nil {
		return nil
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return &TransportError{Kind: KindDNS, Err: err}
	}

	if errors.Is(err, syscall.ECONNREFUSED) {
		return &TransportError{Kind: KindConnectionRefused, Err: err}
	}

	var certErr *tls.CertificateVerificationError
	var recordErr tls.RecordHeaderError
	var unkAuthErr x509.UnknownAuthorityError
	if errors.As(err, &certErr) || errors.As(err, &recordErr) || errors.As(err, &unkAuthErr) {
		return &TransportError{Kind: KindTLS, Err: err}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &TransportError{Kind: KindTimeout, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &TransportError{Kind: KindTimeout, Err: err}
	}

	// String fallbacks for errors the client wraps without typing.
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "connection refused"):
		return &TransportError{Kind: KindConnectionRefused, Err: err}
	case strings.Contains(msg, "no such host"):
		return &TransportError{Kind: KindDNS, Err: err}
	case strings.Contains(msg, "tls") || strings.Contains(msg, "certificate"):
		return &TransportError{Kind: KindTLS, Err: err}
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline exceeded"):
		return &TransportError{Kind: KindTimeout, Err: err}
	}

	return &TransportError{Kind: KindOther, Err: err}
}
