// Package history keeps the append-only log of scored records.
//
// CSVLog is the durable log:
//
//	Pregnancies,Glucose,BloodPressure,SkinThickness,Insulin,BMI,DiabetesPedigreeFunction,Age,Result,Probability
//
// PostgresLog optionally mirrors each record into the score_history table
// (schema applied by Migrate from the embedded migrations). Tee fans out to
// several logs.
package history
