// Package report renders a verdict and its inputs for people: an inline card
// for the form, a DOCX document and an A4 PDF. Every format carries the
// verdict string and all eight labelled values.
package report
