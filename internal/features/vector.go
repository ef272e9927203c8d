package features

import (
	"fmt"
	"math"
	"strconv"
)

// Column names in training order. The scaler and classifier were fitted on
// columns in exactly this order; reordering silently corrupts predictions.
const (
	Pregnancies              = "Pregnancies"
	Glucose                  = "Glucose"
	BloodPressure            = "BloodPressure"
	SkinThickness            = "SkinThickness"
	Insulin                  = "Insulin"
	BMI                      = "BMI"
	DiabetesPedigreeFunction = "DiabetesPedigreeFunction"
	Age                      = "Age"
)

// Order is the canonical column order.
var Order = []string{
	Pregnancies,
	Glucose,
	BloodPressure,
	SkinThickness,
	Insulin,
	BMI,
	DiabetesPedigreeFunction,
	Age,
}

// Count is the number of clinical inputs.
const Count = 8

// Vector is one set of clinical inputs.
type Vector struct {
	Pregnancies              int     `json:"pregnancies"`
	Glucose                  float64 `json:"glucose"`
	BloodPressure            float64 `json:"bloodPressure"`
	SkinThickness            float64 `json:"skinThickness"`
	Insulin                  float64 `json:"insulin"`
	BMI                      float64 `json:"bmi"`
	DiabetesPedigreeFunction float64 `json:"diabetesPedigreeFunction"`
	Age                      int     `json:"age"`
}

// Field is a single labelled value, used wherever a vector is shown to a person.
type Field struct {
	Name  string  `json:"name"`
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// Display renders the value the way the form shows it: integers without a
// fraction, everything else with the shortest exact representation.
func (f Field) Display() string {
	if IsInteger(f.Name) {
		return strconv.FormatFloat(f.Value, 'f', 0, 64)
	}
	return strconv.FormatFloat(f.Value, 'f', -1, 64)
}

// Values returns the inputs in training order.
func (v Vector) Values() []float64 {
	return []float64{
		float64(v.Pregnancies),
		v.Glucose,
		v.BloodPressure,
		v.SkinThickness,
		v.Insulin,
		v.BMI,
		v.DiabetesPedigreeFunction,
		float64(v.Age),
	}
}

// Fields returns the label/value mapping in training order.
func (v Vector) Fields() []Field {
	values := v.Values()
	out := make([]Field, len(Order))
	for i, name := range Order {
		out[i] = Field{Name: name, Label: Labels[name], Value: values[i]}
	}
	return out
}

// Validate reports the first value outside its clinical domain.
func (v Vector) Validate() error {
	for i, value := range v.Values() {
		name := Order[i]
		if math.IsNaN(value) || math.IsInf(value, 0) {
			return &DomainError{Field: name, Value: value, Reason: "not a finite number"}
		}
		if lo := minimum(name); value < lo {
			return &DomainError{Field: name, Value: value, Reason: fmt.Sprintf("must be >= %s", strconv.FormatFloat(lo, 'f', -1, 64))}
		}
	}
	return nil
}

// maxWhole bounds the integer columns before conversion.
const maxWhole = math.MaxInt32

// FromValues builds a Vector from exactly Count values in training order.
// Integer columns must hold finite whole numbers; anything else is a
// DomainError carrying the raw value.
func FromValues(values []float64) (Vector, error) {
	if len(values) != Count {
		return Vector{}, &SchemaError{Reason: fmt.Sprintf("expected %d values, got %d", Count, len(values))}
	}
	pregnancies, err := whole(Pregnancies, values[0])
	if err != nil {
		return Vector{}, err
	}
	age, err := whole(Age, values[7])
	if err != nil {
		return Vector{}, err
	}
	return Vector{
		Pregnancies:              pregnancies,
		Glucose:                  values[1],
		BloodPressure:            values[2],
		SkinThickness:            values[3],
		Insulin:                  values[4],
		BMI:                      values[5],
		DiabetesPedigreeFunction: values[6],
		Age:                      age,
	}, nil
}

func whole(name string, value float64) (int, error) {
	switch {
	case math.IsNaN(value) || math.IsInf(value, 0):
		return 0, &DomainError{Field: name, Value: value, Reason: "not a finite number"}
	case value != math.Trunc(value):
		return 0, &DomainError{Field: name, Value: value, Reason: "must be a whole number"}
	case value < minimum(name) || value > maxWhole:
		return 0, &DomainError{Field: name, Value: value, Reason: fmt.Sprintf("must be between %s and %d",
			strconv.FormatFloat(minimum(name), 'f', -1, 64), maxWhole)}
	}
	return int(value), nil
}

// FromRow builds a Vector from an explicitly labelled row. The columns must be
// the schema columns in schema order.
func FromRow(columns []string, values []float64) (Vector, error) {
	if err := CheckOrder(columns); err != nil {
		return Vector{}, err
	}
	return FromValues(values)
}

// CheckOrder returns a SchemaError unless columns equals Order exactly.
func CheckOrder(columns []string) error {
	if len(columns) != Count {
		return &SchemaError{Reason: fmt.Sprintf("expected %d columns, got %d", Count, len(columns))}
	}
	for i, name := range columns {
		if name != Order[i] {
			return &SchemaError{Reason: fmt.Sprintf("column %d is %q, want %q", i, name, Order[i])}
		}
	}
	return nil
}

// IsInteger reports whether the column holds whole numbers.
func IsInteger(name string) bool {
	return name == Pregnancies || name == Age
}

func minimum(name string) float64 {
	if name == Age {
		return 1
	}
	return 0
}
