// Package sanitizer normalizes free-form caller input before validation.
//
// All functions are idempotent and handle invalid input by returning an empty
// string rather than an error.
//
// Normalization includes:
//   - Phone numbers: Convert to E.164 format (+[country][number])
//   - Strings: Collapse whitespace, trim leading/trailing spaces
//   - Notes: Drop control characters, collapse whitespace
package sanitizer
