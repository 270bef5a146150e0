// Package errs defines the sentinel errors that identify the
// fallback-triggering conditions shared across pipeline stages, so callers
// can errors.Is against them instead of string-matching.
package errs

import "errors"

var (
	// ErrPlannerFallback marks a Planner failure (bad JSON, schema
	// violation) that forced the default/empty Plan.
	ErrPlannerFallback = errors.New("planner: fallback to default plan")

	// ErrGeneratorEmpty marks either an empty candidates array or a JSON
	// parse failure from the Generator; both signal the same fallback.
	ErrGeneratorEmpty = errors.New("generator: no usable candidates")

	// ErrAllCandidatesRejected marks every candidate failing validation or
	// repair.
	ErrAllCandidatesRejected = errors.New("validate: all candidates rejected")

	// ErrGuardRejected marks a Guard-level rejection (CJK in SQL, forbidden
	// clause, unauthorized table/column, parse failure).
	ErrGuardRejected = errors.New("guard: sql rejected")
)
