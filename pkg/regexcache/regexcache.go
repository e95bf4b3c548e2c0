// Package regexcache provides a thread-safe cache for compiled regular
// expressions. Detector signature tables reference the same patterns on
// every response, so compilation happens once per pattern.
package regexcache

import (
	"regexp"
	"sync"
)

var cache sync.Map // map[string]*regexp.Regexp

// Get returns a compiled regexp for the given pattern, compiling and
// caching it on first use.
func Get(pattern string) (*regexp.Regexp, error) {
	if cached, ok := cache.Load(pattern); ok {
		return cached.(*regexp.Regexp), nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	actual, _ := cache.LoadOrStore(pattern, re)
	return actual.(*regexp.Regexp), nil
}

// MustGet returns a compiled regexp for the given pattern.
// It panics if the pattern is invalid; use only for static tables.
func MustGet(pattern string) *regexp.Regexp {
	re, err := Get(pattern)
	if err != nil {
		panic(err)
	}
	return re
}

// Size returns the number of cached regular expressions.
func Size() int {
	count := 0
	cache.Range(func(_, _ interface{}) bool {
		count++
		return true
	})
	return count
}

// Clear removes all cached regular expressions. Primarily for tests.
func Clear() {
	cache.Range(func(key, _ interface{}) bool {
		cache.Delete(key)
		return true
	})
}
