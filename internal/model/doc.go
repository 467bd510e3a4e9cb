// Package model defines the data types shared by proxyfinder components.
//
// A Candidate is a proxy endpoint obtained from discovery. A ProbeOutcome
// records the result of checking one Candidate against a target URL; an
// empty Error means the proxy works. RunConfig holds the settings of a
// single validation run and Summary aggregates a set of outcomes.
package model
