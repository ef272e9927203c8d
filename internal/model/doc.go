// Package model loads the fitted scaler and the trained classifier from disk.
//
// Both resources are YAML (or JSON) files produced outside this repository:
//
//	kind: standard_scaler          kind: logistic_regression
//	features: [...]                features: [...]
//	mean: [8 floats]               weights: [8 floats]
//	scale: [8 floats]              bias: float
//	                               threshold: 0.5
//
// When `features` is present it must equal the training column order.
// Resources are loaded once at start-up and never reloaded or mutated.
package model
