package payloads

import "fmt"

// Profile is a closed set of scan profiles. Each profile selects a fixed
// subset of vulnerability classes from the catalog; there is no open-ended
// runtime registration of scan strategies.
type Profile string

const (
	// ProfileFull runs every vulnerability class.
	ProfileFull Profile = "full"

	// ProfileInjection runs only the injection classes (SQLi, XSS, command
	// injection, traversal).
	ProfileInjection Profile = "injection"

	// ProfileQuick runs the cheapest high-signal checks: SQLi, XSS, and
	// the header baseline.
	ProfileQuick Profile = "quick"

	// ProfilePassive sends no attack payloads at all; only the baseline
	// security header check runs.
	ProfilePassive Profile = "passive"
)

// Classes returns the vulnerability classes this profile selects,
// in canonical order.
func (p Profile) Classes() []Class {
	switch p {
	case ProfileInjection:
		return []Class{ClassSQLi, ClassXSS, ClassCmdInjection, ClassPathTraversal}
	case ProfileQuick:
		return []Class{ClassSQLi, ClassXSS, ClassHeaders}
	case ProfilePassive:
		return []Class{ClassHeaders}
	default:
		return AllClasses()
	}
}

// IsValid reports whether p is a recognized profile.
func (p Profile) IsValid() bool {
	switch p {
	case ProfileFull, ProfileInjection, ProfileQuick, ProfilePassive:
		return true
	}
	return false
}

// ParseProfile converts a string into a Profile.
func ParseProfile(s string) (Profile, error) {
	p := Profile(s)
	if !p.IsValid() {
		return "", fmt.Errorf("unknown scan profile %q", s)
	}
	return p, nil
}
