// Package target normalizes free-form target strings (URL, hostname, IP
// literal) into a canonical descriptor. Resolution is a pure parse and
// classify step: no network I/O happens here, so it is deterministic and
// a changed target always means a new assessment.
package target

import (
	"fmt"
	"net/netip"
	"net/url"
	"strconv"
	"strings"
)

// Kind classifies what the raw input looked like.
type Kind string

const (
	// KindWeb is a full URL with scheme and optionally a path.
	KindWeb Kind = "web"

	// KindHost is a bare hostname without scheme or path.
	KindHost Kind = "host"

	// KindIP is an IPv4 or IPv6 literal.
	KindIP Kind = "ip"
)

// Descriptor is the canonical form of a scan target. It is created once
// per assessment and never changes afterwards.
type Descriptor struct {
	RawInput     string `json:"raw_input"`
	CanonicalURL string `json:"canonical_url"`
	Kind         Kind   `json:"kind"`
	Scheme       string `json:"scheme"`
	Host         string `json:"host"`
	Port         int    `json:"port"`
	Path         string `json:"path,omitempty"`
}

// ResolutionError describes an unusable target string. It is fatal for
// the assessment: nothing can be probed without a resolvable target.
type ResolutionError struct {
	Input  string
	Reason string
	Err    error
}

func (e *ResolutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("resolving target %q: %s: %v", e.Input, e.Reason, e.Err)
	}
	return fmt.Sprintf("resolving target %q: %s", e.Input, e.Reason)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// Resolve parses and classifies a raw target string.
// IP literals become KindIP, schemeless pathless strings become KindHost
// (default scheme https), everything else is parsed as a URL (KindWeb).
func Resolve(raw string) (*Descriptor, error) {
	input := strings.TrimSpace(raw)
	if input == "" {
		return nil, &ResolutionError{Input: raw, Reason: "empty target"}
	}

	// IP literal, with or without port.
	if d, ok := resolveIPLiteral(input); ok {
		d.RawInput = raw
		return d, nil
	}

	if strings.Contains(input, "://") {
		return resolveURL(raw, input)
	}

	// No scheme. A path component promotes the input to a URL target.
	if strings.ContainsRune(input, '/') {
		return resolveURL(raw, "https://"+input)
	}

	return resolveHost(raw, input)
}

// resolveIPLiteral handles bare IPv4/IPv6 addresses, bracketed IPv6, and
// ip:port forms.
func resolveIPLiteral(input string) (*Descriptor, bool) {
	if addr, err := netip.ParseAddr(input); err == nil {
		return ipDescriptor(addr, 443), true
	}
	if ap, err := netip.ParseAddrPort(input); err == nil {
		return ipDescriptor(ap.Addr(), int(ap.Port())), true
	}
	return nil, false
}

func ipDescriptor(addr netip.Addr, port int) *Descriptor {
	host := addr.String()
	display := host
	if addr.Is6() {
		display = "[" + host + "]"
	}
	scheme := "https"
	if port == 80 {
		scheme = "http"
	}
	canonical := scheme + "://" + display
	if port != 443 && port != 80 {
		canonical += ":" + strconv.Itoa(port)
	}
	return &Descriptor{
		CanonicalURL: canonical,
		Kind:         KindIP,
		Scheme:       scheme,
		Host:         host,
		Port:         port,
	}
}

func resolveURL(raw, input string) (*Descriptor, error) {
	u, err := url.Parse(input)
	if err != nil {
		return nil, &ResolutionError{Input: raw, Reason: "malformed URL", Err: err}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, &ResolutionError{Input: raw, Reason: fmt.Sprintf("unsupported scheme %q", u.Scheme)}
	}
	if u.Hostname() == "" {
		return nil, &ResolutionError{Input: raw, Reason: "missing host"}
	}

	port := defaultPort(u.Scheme)
	if p := u.Port(); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil || n < 1 || n > 65535 {
			return nil, &ResolutionError{Input: raw, Reason: fmt.Sprintf("invalid port %q", p)}
		}
		port = n
	}

	canonical := u.Scheme + "://" + u.Host
	if u.Path != "" && u.Path != "/" {
		canonical += u.Path
	}
	if u.RawQuery != "" {
		canonical += "?" + u.RawQuery
	}

	return &Descriptor{
		RawInput:     raw,
		CanonicalURL: canonical,
		Kind:         KindWeb,
		Scheme:       u.Scheme,
		Host:         u.Hostname(),
		Port:         port,
		Path:         u.Path,
	}, nil
}

func resolveHost(raw, input string) (*Descriptor, error) {
	host := input
	port := 443
	if i := strings.LastIndexByte(input, ':'); i >= 0 {
		n, err := strconv.Atoi(input[i+1:])
		if err != nil || n < 1 || n > 65535 {
			return nil, &ResolutionError{Input: raw, Reason: fmt.Sprintf("invalid port in %q", input)}
		}
		host = input[:i]
		port = n
	}

	if !validHostname(host) {
		return nil, &ResolutionError{Input: raw, Reason: fmt.Sprintf("invalid hostname %q", host)}
	}

	scheme := "https"
	if port == 80 {
		scheme = "http"
	}
	canonical := scheme + "://" + host
	if port != 443 && port != 80 {
		canonical += ":" + strconv.Itoa(port)
	}

	return &Descriptor{
		RawInput:     raw,
		CanonicalURL: canonical,
		Kind:         KindHost,
		Scheme:       scheme,
		Host:         strings.ToLower(host),
		Port:         port,
	}, nil
}

// HTTPFallback returns a copy of the descriptor downgraded to plain HTTP,
// for retrying a host that never answered over the assumed https scheme.
// Web targets carry an explicit scheme and are never downgraded; a nil
// return means no fallback applies.
func (d *Descriptor) HTTPFallback() *Descriptor {
	if d.Kind == KindWeb || d.Scheme != "https" {
		return nil
	}

	fb := *d
	fb.Scheme = "http"
	fb.Port = d.Port
	if fb.Port == 443 {
		// Both ports were scheme defaults, so the downgrade moves too.
		fb.Port = 80
	}

	display := d.Host
	if strings.Contains(display, ":") {
		display = "[" + display + "]"
	}
	fb.CanonicalURL = "http://" + display
	if fb.Port != 80 {
		fb.CanonicalURL += ":" + strconv.Itoa(fb.Port)
	}
	return &fb
}

func defaultPort(scheme string) int {
	if scheme == "http" {
		return 80
	}
	return 443
}

// validHostname checks RFC 1123 label syntax, loosely.
func validHostname(host string) bool {
	if host == "" || len(host) > 253 {
		return false
	}
	for _, label := range strings.Split(host, ".") {
		if label == "" || len(label) > 63 {
			return false
		}
		for i, r := range label {
			switch {
			case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			case r == '-' && i > 0 && i < len(label)-1:
			default:
				return false
			}
		}
	}
	return true
}
