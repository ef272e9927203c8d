// Package features defines the eight-field clinical input record and its
// schema: the training column order, the form bounds and the header alias
// table used by structured inputs.
//
// Column order (must match the fitted scaler and classifier):
//
//	Pregnancies, Glucose, BloodPressure, SkinThickness,
//	Insulin, BMI, DiabetesPedigreeFunction, Age
package features
