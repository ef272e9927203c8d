package features

import (
	"math"
	"strings"
)

// Bound is the (min, default, max) triple of one form input.
type Bound struct {
	Min     float64
	Default float64
	Max     float64
	Step    float64
}

// Bounds are the literal limits of the interactive form.
var Bounds = map[string]Bound{
	Pregnancies:              {Min: 0, Default: 0, Max: 20, Step: 1},
	Glucose:                  {Min: 0, Default: 100, Max: 200, Step: 1},
	BloodPressure:            {Min: 0, Default: 70, Max: 140, Step: 1},
	SkinThickness:            {Min: 0, Default: 20, Max: 100, Step: 1},
	Insulin:                  {Min: 0, Default: 100, Max: 900, Step: 1},
	BMI:                      {Min: 0, Default: 25.0, Max: 70.0, Step: 0.1},
	DiabetesPedigreeFunction: {Min: 0, Default: 0.5, Max: 3.0, Step: 0.01},
	Age:                      {Min: 1, Default: 30, Max: 120, Step: 1},
}

// Labels are the human readable names shown on forms and reports.
var Labels = map[string]string{
	Pregnancies:              "Pregnancies",
	Glucose:                  "Glucose",
	BloodPressure:            "Blood Pressure",
	SkinThickness:            "Skin Thickness",
	Insulin:                  "Insulin",
	BMI:                      "BMI",
	DiabetesPedigreeFunction: "Diabetes Pedigree Function",
	Age:                      "Age",
}

// Clamp limits value to the field's bound. Integer fields are rounded first.
func Clamp(name string, value float64) float64 {
	b, ok := Bounds[name]
	if !ok {
		return value
	}
	if math.IsNaN(value) {
		return b.Default
	}
	if IsInteger(name) {
		value = math.Round(value)
	}
	return math.Min(math.Max(value, b.Min), b.Max)
}

// Defaults returns the vector the form starts with.
func Defaults() Vector {
	values := make([]float64, len(Order))
	for i, name := range Order {
		values[i] = Bounds[name].Default
	}
	v, _ := FromValues(values)
	return v
}

// aliases maps alternative column spellings to schema columns. Keys are
// lower-cased.
var aliases = map[string]string{
	"dpf":                        DiabetesPedigreeFunction,
	"diabetes pedigree function": DiabetesPedigreeFunction,
	"diabetes_pedigree_function": DiabetesPedigreeFunction,
	"blood pressure":             BloodPressure,
	"blood_pressure":             BloodPressure,
	"skin thickness":             SkinThickness,
	"skin_thickness":             SkinThickness,
}

// Canonical resolves a column header to its schema name. It ignores case,
// surrounding whitespace and a UTF-8 byte order mark. The second result is
// false when the header names no schema column.
func Canonical(header string) (string, bool) {
	h := strings.TrimSpace(strings.TrimPrefix(header, "\ufeff"))
	for _, name := range Order {
		if strings.EqualFold(h, name) {
			return name, true
		}
	}
	name, ok := aliases[strings.ToLower(h)]
	return name, ok
}
