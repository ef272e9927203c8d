// Package scoring runs one clinical vector through the loaded scaler and
// classifier and bands the positive-class probability.
//
// Steps of Score:
//   - validate the vector (DomainError, SchemaError)
//   - scale it (ErrScalerUnavailable when no scaler was loaded)
//   - classify it (ErrModelUnavailable when no classifier was loaded)
//   - band the probability with risk.Classify
//
// Score has no side effects beyond logging and the optional Observer.
package scoring
