// Package input resolves a clinical vector from user input.
//
// Strategies:
//   - Manual: form fields, defaulted and clamped to the form bounds
//   - CSV:    first data row of a table with all eight schema columns
//   - PDF:    first eight numbers in the document text (positional)
//   - Text:   the PDF heuristic applied to plain text
package input
