// Package errors provides structured, coded errors for statesvc.
//
// Every error carries a unique code (e.g., "E002") that maps to a registered
// template with a category, a short message, a longer explanation and a
// documentation URL. Errors built from the same code compare equal under
// errors.Is, so callers can match on a sentinel without caring about the
// detail that was attached at the failure site.
//
// # Error Categories
//
//   - validation: malformed input handed to the store (nil payloads, bad handles)
//   - runtime: failures while creating, sharing or tearing down services
//   - config: configuration file problems
//
// # Usage
//
//	err := errors.New("E002").
//	    WithDetail(`cache key "a" != unique key "b"`).
//	    WithSuggestion("Drop the explicit CacheKey or make UniqueKey agree with it")
//
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR E002: Cache key conflict
//	//
//	//   cache key "a" != unique key "b"
//	//
//	//   Hint: Drop the explicit CacheKey or make UniqueKey agree with it
//	//
//	//   Learn more: https://vango.dev/docs/statesvc/errors/E002
package errors
