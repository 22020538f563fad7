package patient

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Verdict labels derived from BMI
const (
	VerdictUnderweight = "Underweight"
	VerdictNormal      = "Normal weight"
	VerdictOverweight  = "Overweight"
	VerdictObesity     = "Obesity"
)

// Genders accepted by the schema
var validGenders = map[string]bool{
	"male":   true,
	"female": true,
	"others": true,
}

// Record is the stored form of a patient. The id is never part of the
// stored value: the collection key owns it.
type Record struct {
	Name   string  `json:"name"`
	City   string  `json:"city"`
	Age    int     `json:"age"`
	Gender string  `json:"gender"`
	Height float64 `json:"height"`
	Weight float64 `json:"weight"`
}

// Collection is the full keyed set of patient records as persisted in one
// JSON document.
type Collection map[string]Record

// View is the read form of a patient: the record plus its computed fields.
// ID is omitted in sort output, where records are returned as a plain list.
type View struct {
	ID      string  `json:"id,omitempty"`
	Name    string  `json:"name"`
	City    string  `json:"city"`
	Age     int     `json:"age"`
	Gender  string  `json:"gender"`
	Height  float64 `json:"height"`
	Weight  float64 `json:"weight"`
	BMI     float64 `json:"bmi"`
	Verdict string  `json:"verdict"`
}

// Update is a partial payload. Pointer fields keep the presence of each
// field observable: a nil field was not supplied and must leave the stored
// value untouched.
type Update struct {
	Name   *string  `json:"name"`
	City   *string  `json:"city"`
	Age    *int     `json:"age"`
	Gender *string  `json:"gender"`
	Height *float64 `json:"height"`
	Weight *float64 `json:"weight"`
}

// FieldError describes a single failed constraint.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ValidationError names every invalid field and its reason.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	reasons := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		reasons = append(reasons, fmt.Sprintf("%s: %s", f.Field, f.Reason))
	}
	return "validation failed: " + strings.Join(reasons, "; ")
}

// NormalizeID trims whitespace and upper-cases an id before it is used as
// a collection key.
func NormalizeID(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}

// Validate checks the record against the constraint table. The id is
// validated alongside since create supplies it with the payload.
func Validate(id string, r Record) error {
	var fields []FieldError

	if NormalizeID(id) == "" {
		fields = append(fields, FieldError{"id", "must not be empty"})
	}
	if l := len(r.Name); l < 2 || l > 50 {
		fields = append(fields, FieldError{"name", "must be between 2 and 50 characters"})
	}
	if l := len(r.City); l < 2 || l > 100 {
		fields = append(fields, FieldError{"city", "must be between 2 and 100 characters"})
	}
	if r.Age <= 0 {
		fields = append(fields, FieldError{"age", "must be a positive integer"})
	}
	if !validGenders[r.Gender] {
		fields = append(fields, FieldError{"gender", "must be one of male, female, others"})
	}
	if r.Height <= 0 {
		fields = append(fields, FieldError{"height", "must be a positive number in meters"})
	}
	if r.Weight <= 0 {
		fields = append(fields, FieldError{"weight", "must be a positive number in kilograms"})
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// Apply merges the supplied fields of an update over a record. Unset
// fields are left untouched.
func (u Update) Apply(r Record) Record {
	if u.Name != nil {
		r.Name = *u.Name
	}
	if u.City != nil {
		r.City = *u.City
	}
	if u.Age != nil {
		r.Age = *u.Age
	}
	if u.Gender != nil {
		r.Gender = *u.Gender
	}
	if u.Height != nil {
		r.Height = *u.Height
	}
	if u.Weight != nil {
		r.Weight = *u.Weight
	}
	return r
}

// BMI returns weight / height^2 rounded to two decimals. A record without
// a positive height (possible in hand-edited files) yields 0 rather than
// an unencodable Inf.
func (r Record) BMI() float64 {
	if r.Height <= 0 {
		return 0
	}
	return math.Round(r.Weight/(r.Height*r.Height)*100) / 100
}

// VerdictFor classifies a BMI value. The comparison chain is deliberate:
// a BMI in [24.9, 25) falls through to Obesity.
func VerdictFor(bmi float64) string {
	switch {
	case bmi < 18.5:
		return VerdictUnderweight
	case bmi < 24.9:
		return VerdictNormal
	case bmi >= 25 && bmi < 29.9:
		return VerdictOverweight
	default:
		return VerdictObesity
	}
}

// AsView attaches the id from the collection key and the computed fields.
func (r Record) AsView(id string) View {
	bmi := r.BMI()
	return View{
		ID:      id,
		Name:    r.Name,
		City:    r.City,
		Age:     r.Age,
		Gender:  r.Gender,
		Height:  r.Height,
		Weight:  r.Weight,
		BMI:     bmi,
		Verdict: VerdictFor(bmi),
	}
}

// Sortable numeric fields and orders
const (
	SortByBMI    = "bmi"
	SortByWeight = "weight"
	SortByHeight = "height"

	OrderAsc  = "asc"
	OrderDesc = "desc"
)

// ValidSortField reports whether the field is one of bmi, weight, height.
func ValidSortField(field string) bool {
	return field == SortByBMI || field == SortByWeight || field == SortByHeight
}

// ValidSortOrder reports whether the order is asc or desc.
func ValidSortOrder(order string) bool {
	return order == OrderAsc || order == OrderDesc
}

func sortKey(r Record, field string) float64 {
	switch field {
	case SortByWeight:
		return r.Weight
	case SortByHeight:
		return r.Height
	default:
		return r.BMI()
	}
}

// Sort returns the collection as a list of views ordered by the requested
// numeric field. The sort is stable over the key order of the collection,
// records missing the field sort with value 0, and the views carry no id.
func (c Collection) Sort(field, order string) []View {
	ids := make([]string, 0, len(c))
	for id := range c {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	recs := make([]Record, 0, len(ids))
	for _, id := range ids {
		recs = append(recs, c[id])
	}

	desc := order == OrderDesc
	sort.SliceStable(recs, func(i, j int) bool {
		a, b := sortKey(recs[i], field), sortKey(recs[j], field)
		if desc {
			return a > b
		}
		return a < b
	})

	views := make([]View, 0, len(recs))
	for _, r := range recs {
		views = append(views, r.AsView(""))
	}
	return views
}
