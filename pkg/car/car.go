package car

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Field names as they appear on the wire and in form events.
const (
	FieldBrand     = "brand"
	FieldModel     = "model"
	FieldColor     = "color"
	FieldFuel      = "fuel"
	FieldModelYear = "modelYear"
	FieldPrice     = "price"
)

// FieldInfo describes one editable field of a car.
type FieldInfo struct {
	Name    string
	Label   string
	Numeric bool
}

// Fields lists the editable fields in display order.
var Fields = []FieldInfo{
	{Name: FieldBrand, Label: "Brand"},
	{Name: FieldModel, Label: "Model"},
	{Name: FieldColor, Label: "Color"},
	{Name: FieldFuel, Label: "Fuel"},
	{Name: FieldModelYear, Label: "Year", Numeric: true},
	{Name: FieldPrice, Label: "Price", Numeric: true},
}

// LookupField returns the FieldInfo for name.
func LookupField(name string) (FieldInfo, bool) {
	for _, f := range Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldInfo{}, false
}

// Draft is the editable part of a car record. It is also the request body
// for POST /cars and PUT /cars/{id}.
type Draft struct {
	Brand     string  `json:"brand"`
	Model     string  `json:"model"`
	Color     string  `json:"color"`
	Fuel      string  `json:"fuel"`
	ModelYear Numeric `json:"modelYear"`
	Price     Numeric `json:"price"`
}

// Car is one vehicle record. ID is derived from the record's self link and
// never sent back to the server in a body.
type Car struct {
	ID string `json:"id"`
	Draft
}

// Get returns the value of the named field.
func (d Draft) Get(name string) (string, bool) {
	switch name {
	case FieldBrand:
		return d.Brand, true
	case FieldModel:
		return d.Model, true
	case FieldColor:
		return d.Color, true
	case FieldFuel:
		return d.Fuel, true
	case FieldModelYear:
		return string(d.ModelYear), true
	case FieldPrice:
		return string(d.Price), true
	}
	return "", false
}

// Set assigns value to the named field. It reports false for unknown names.
func (d *Draft) Set(name, value string) bool {
	switch name {
	case FieldBrand:
		d.Brand = value
	case FieldModel:
		d.Model = value
	case FieldColor:
		d.Color = value
	case FieldFuel:
		d.Fuel = value
	case FieldModelYear:
		d.ModelYear = Numeric(value)
	case FieldPrice:
		d.Price = Numeric(value)
	default:
		return false
	}
	return true
}

// Missing returns the names of fields that are blank, in display order.
func (d Draft) Missing() []string {
	var missing []string
	for _, f := range Fields {
		v, _ := d.Get(f.Name)
		if strings.TrimSpace(v) == "" {
			missing = append(missing, f.Name)
		}
	}
	return missing
}

// Numeric holds user input for a number field exactly as typed.
//
// It decodes from a JSON number or string. It encodes as a bare JSON number
// when the text is one, and as a JSON string otherwise, so malformed input
// reaches the server unchanged and is rejected there.
type Numeric string

var jsonNumber = regexp.MustCompile(`^-?(0|[1-9][0-9]*)(\.[0-9]+)?([eE][+-]?[0-9]+)?$`)

// IsNumber reports whether n is a valid JSON number.
func (n Numeric) IsNumber() bool {
	return jsonNumber.MatchString(strings.TrimSpace(string(n)))
}

// MarshalJSON implements json.Marshaler.
func (n Numeric) MarshalJSON() ([]byte, error) {
	s := strings.TrimSpace(string(n))
	if s == "" {
		return []byte("null"), nil
	}
	if n.IsNumber() {
		return []byte(s), nil
	}
	return json.Marshal(string(n))
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *Numeric) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	switch {
	case s == "null":
		*n = ""
	case strings.HasPrefix(s, `"`):
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*n = Numeric(str)
	case jsonNumber.MatchString(s):
		*n = Numeric(s)
	default:
		return fmt.Errorf("car: cannot use %s as a numeric value", s)
	}
	return nil
}
