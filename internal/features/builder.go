// Package features turns raw form values into the feature vector the price
// model was trained on.
package features

import (
	"math"
	"strconv"
	"strings"

	"houseprice/pkg/geo"
)

// Size is the number of features the model expects.
const Size = 16

// AboveGroundFraction is the share of living area assumed to be above ground.
const AboveGroundFraction = 0.85

// Vector is the ordered model input. The order is fixed by the trained model.
type Vector [Size]float64

// Slice returns the vector as a new slice.
func (v Vector) Slice() []float64 {
	out := make([]float64, Size)
	copy(out, v[:])
	return out
}

// Names lists the feature columns in vector order.
var Names = [Size]string{
	"bedrooms", "bathrooms", "floors", "sqft_living", "sqft_lot",
	"grade", "yr_built", "yr_renovated", "waterfront", "view",
	"condition", "sqft_above", "lat", "long",
	"sqft_living15", "sqft_lot15",
}

// Form field names.
const (
	FieldBedrooms    = "bedrooms"
	FieldBathrooms   = "bathrooms"
	FieldSqftLiving  = "sqft_living"
	FieldSqftLot     = "sqft_lot"
	FieldFloors      = "floors"
	FieldYrBuilt     = "yr_built"
	FieldCondition   = "condition"
	FieldGrade       = "grade"
	FieldYrRenovated = "yr_renovated"
	FieldWaterfront  = "waterfront"
	FieldView        = "view"
	FieldLocation    = "location"
)

// Defaults for optional fields.
const (
	DefaultFloors      = 1.0
	DefaultGrade       = 7.0
	DefaultYrRenovated = 0.0
	DefaultWaterfront  = 0.0
	DefaultView        = 0.0
)

// Attributes are the parsed property attributes of one request.
type Attributes struct {
	Bedrooms    float64
	Bathrooms   float64
	SqftLiving  float64
	SqftLot     float64
	Floors      float64
	YrBuilt     float64
	Condition   float64
	Grade       float64
	YrRenovated float64
	Waterfront  float64
	View        float64
	Location    string
}

// Derived holds the values computed from Attributes.
type Derived struct {
	SqftAbove    float64
	SqftBasement float64
	Living15     float64
	Lot15        float64
	Coordinates  geo.Coordinates
}

// Builder validates form input and assembles feature vectors. It holds no
// per-request state.
type Builder struct {
	locations *geo.Table
}

// NewBuilder returns a builder over locations, or the built-in table when nil.
func NewBuilder(locations *geo.Table) *Builder {
	if locations == nil {
		locations = geo.DefaultTable()
	}
	return &Builder{locations: locations}
}

// Build parses fields and returns the model input vector.
func (b *Builder) Build(fields map[string]string) (Vector, error) {
	attrs, derived, err := b.BuildAttributes(fields)
	if err != nil {
		return Vector{}, err
	}
	return Assemble(attrs, derived), nil
}

// BuildAttributes parses and derives without assembling the vector.
func (b *Builder) BuildAttributes(fields map[string]string) (Attributes, Derived, error) {
	attrs, err := Parse(fields)
	if err != nil {
		return Attributes{}, Derived{}, err
	}
	return attrs, b.Derive(attrs), nil
}

// Parse reads required fields first, then optional fields with defaults.
func Parse(fields map[string]string) (Attributes, error) {
	var (
		a   Attributes
		err error
	)
	required := []struct {
		name string
		dst  *float64
	}{
		{FieldBedrooms, &a.Bedrooms},
		{FieldBathrooms, &a.Bathrooms},
		{FieldSqftLiving, &a.SqftLiving},
		{FieldSqftLot, &a.SqftLot},
		{FieldYrBuilt, &a.YrBuilt},
		{FieldCondition, &a.Condition},
	}
	for _, f := range required {
		if *f.dst, err = requiredFloat(fields, f.name); err != nil {
			return Attributes{}, err
		}
	}

	optional := []struct {
		name string
		def  float64
		dst  *float64
	}{
		{FieldFloors, DefaultFloors, &a.Floors},
		{FieldGrade, DefaultGrade, &a.Grade},
		{FieldYrRenovated, DefaultYrRenovated, &a.YrRenovated},
		{FieldWaterfront, DefaultWaterfront, &a.Waterfront},
		{FieldView, DefaultView, &a.View},
	}
	for _, f := range optional {
		if *f.dst, err = optionalFloat(fields, f.name, f.def); err != nil {
			return Attributes{}, err
		}
	}

	a.Location = geo.DefaultLocation
	if loc, ok := present(fields, FieldLocation); ok {
		a.Location = geo.NormalizeKey(loc)
	}
	return a, nil
}

// Derive computes the secondary features. SqftBasement is derived for callers
// but is not part of the model input.
func (b *Builder) Derive(a Attributes) Derived {
	above := a.SqftLiving * AboveGroundFraction
	return Derived{
		SqftAbove:    above,
		SqftBasement: a.SqftLiving - above,
		Living15:     a.SqftLiving,
		Lot15:        a.SqftLot,
		Coordinates:  b.locations.CoordinatesFor(a.Location),
	}
}

// Assemble lays the values out in model order.
func Assemble(a Attributes, d Derived) Vector {
	return Vector{
		a.Bedrooms, a.Bathrooms, a.Floors, a.SqftLiving, a.SqftLot,
		a.Grade, a.YrBuilt, a.YrRenovated, a.Waterfront, a.View,
		a.Condition, d.SqftAbove, d.Coordinates.Lat, d.Coordinates.Lon,
		d.Living15, d.Lot15,
	}
}

// present returns the trimmed value and whether it is non-empty.
func present(fields map[string]string, name string) (string, bool) {
	v, ok := fields[name]
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

func requiredFloat(fields map[string]string, name string) (float64, error) {
	v, ok := present(fields, name)
	if !ok {
		return 0, &ValidationError{Field: name, Reason: ErrMissing}
	}
	return parseFloat(name, v)
}

// optionalFloat defaults absent or empty values. A blank but non-empty value
// is not a number and is rejected.
func optionalFloat(fields map[string]string, name string, def float64) (float64, error) {
	if raw, sent := fields[name]; !sent || raw == "" {
		return def, nil
	}
	v, ok := present(fields, name)
	if !ok {
		return 0, &ValidationError{Field: name, Reason: ErrUnparsable, Value: fields[name]}
	}
	return parseFloat(name, v)
}

func parseFloat(name, v string) (float64, error) {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, &ValidationError{Field: name, Reason: ErrUnparsable, Value: v}
	}
	return f, nil
}
