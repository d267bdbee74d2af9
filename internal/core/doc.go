// Package core provides the reconciliation and metrics logic for moderation
// spreadsheets.
//
// This package is the heart of the analyser, containing all domain logic
// independent of any UI or transport layer. It is used by the web handlers
// and the modcheck CLI without modification, and it never logs: every
// failure is returned to the caller as a typed error.
//
// # Architecture
//
//   - Schema validation: [Validate] checks a decoded [sheet.Table] against an
//     ordered list of required column names and reports what is missing.
//   - Single-table metrics: [Summarize] classifies issue notes, totals the
//     borderline/failed student counts, scans outcome text, filters critical
//     cases and, when a [Classifier] is supplied, buckets issue notes into
//     categories.
//   - Two-table comparison: [Compare] derives a per-row field on each side,
//     full-outer-joins the tables on a key column and classifies every joined
//     row as Match or Mismatch.
//   - Profiles: named required-column sets registered via [Register], one per
//     kind of spreadsheet the analyser accepts.
//
// # Capabilities
//
// Which aggregations run is decided by the columns the table actually has
// ([DetectCapabilities]), not by the profile. A profile only decides which
// columns are mandatory.
//
// # Error Handling
//
//   - [*SchemaError]: required columns missing; nothing is aggregated.
//   - [*ClassifierError]: the classifier failed or returned a blank label;
//     the whole request fails rather than leaving a row uncategorised.
//   - Numeric cells that do not parse are counted as zero and reported in
//     aggregate through [NumericTotal.Coerced].
//
// Technical errors are mapped to user-facing messages with [MapError].
package core
