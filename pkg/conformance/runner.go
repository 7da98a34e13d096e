// Copyright (c) 2025 CertNode
//
// This file is part of certnode-go.
//
// Licensed under the Apache License, Version 2.0.
// See the LICENSE file for details.

package conformance

import "fmt"

// Outcome records one implementation's judgment of one fixture.
type Outcome struct {
	Implementation string `json:"implementation"`
	OK             bool   `json:"ok"`
	Reason         string `json:"reason,omitempty"`
}

// Mismatch is a conformance regression: a fixture on which an
// implementation disagreed with the expected result or with the other
// implementations.
type Mismatch struct {
	Fixture  string    `json:"fixture"`
	Expected bool      `json:"expected"`
	Outcomes []Outcome `json:"outcomes"`
}

// String renders the mismatch for reports.
func (m Mismatch) String() string {
	s := fmt.Sprintf("%s: expected %v", m.Fixture, m.Expected)
	for _, o := range m.Outcomes {
		s += fmt.Sprintf("; %s=%v", o.Implementation, o.OK)
		if o.Reason != "" {
			s += fmt.Sprintf(" (%s)", o.Reason)
		}
	}
	return s
}

// Counts aggregates pass/fail tallies for one implementation, split by
// fixture category (expected-valid vs expected-invalid).
type Counts struct {
	Implementation string `json:"implementation"`
	ValidPassed    int    `json:"valid_passed"`
	ValidFailed    int    `json:"valid_failed"`
	InvalidPassed  int    `json:"invalid_passed"`
	InvalidFailed  int    `json:"invalid_failed"`
}

// Report is the result of running a corpus across implementations.
type Report struct {
	Fixtures   int        `json:"fixtures"`
	Counts     []Counts   `json:"counts"`
	Mismatches []Mismatch `json:"mismatches,omitempty"`
}

// OK reports whether every implementation matched every expected
// outcome and the per-category counts agree across implementations.
func (r *Report) OK() bool {
	return len(r.Mismatches) == 0
}

// Run executes every fixture against every implementation. A fixture
// contributes a Mismatch when any implementation's boolean outcome
// differs from expected_result; the mismatch carries every
// implementation's outcome so divergence between implementations is
// visible in the same record.
func Run(fixtures []*Fixture, verifiers []Verifier) *Report {
	report := &Report{Fixtures: len(fixtures)}

	counts := make([]Counts, len(verifiers))
	for i, v := range verifiers {
		counts[i].Implementation = v.Name()
	}

	for _, fixture := range fixtures {
		outcomes := make([]Outcome, len(verifiers))
		agree := true
		for i, v := range verifiers {
			ok, reason := v.Verify(&fixture.Receipt, &fixture.JWKS)
			outcomes[i] = Outcome{Implementation: v.Name(), OK: ok, Reason: reason}
			if ok != fixture.ExpectedResult {
				agree = false
			}
			if fixture.ExpectedResult {
				if ok {
					counts[i].ValidPassed++
				} else {
					counts[i].ValidFailed++
				}
			} else {
				if !ok {
					counts[i].InvalidPassed++
				} else {
					counts[i].InvalidFailed++
				}
			}
		}
		if !agree {
			report.Mismatches = append(report.Mismatches, Mismatch{
				Fixture:  fixture.Description,
				Expected: fixture.ExpectedResult,
				Outcomes: outcomes,
			})
		}
	}

	report.Counts = counts
	return report
}
