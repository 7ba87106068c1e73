package car

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/ohler55/ojg/jp"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// DefaultRel is the embedded relation that holds the car items.
const DefaultRel = "cars"

// ErrShape is wrapped by every error DecodeCollection returns for a body
// that does not match the expected envelope.
var ErrShape = errors.New("unexpected response shape")

// ErrNoSelfLink is returned by IDFromHref when no id can be derived.
var ErrNoSelfLink = errors.New("self link has no final path segment")

// DecodeOptions controls DecodeCollection.
type DecodeOptions struct {
	// Rel is the name of the embedded relation. Defaults to DefaultRel.
	Rel string
	// Strict rejects bodies without the embedded relation. When false a
	// missing relation decodes to an empty collection.
	Strict bool
}

// envelopeSchema accepts any object whose _embedded relations are arrays of
// items that each carry a non-empty self href. Fields of the items are not
// checked; the server owns their validity.
const envelopeSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "properties": {
    "_embedded": {
      "type": ["object", "null"],
      "additionalProperties": {
        "type": ["array", "null"],
        "items": { "$ref": "#/$defs/item" }
      }
    }
  },
  "$defs": {
    "item": {
      "type": "object",
      "required": ["_links"],
      "properties": {
        "_links": {
          "type": "object",
          "required": ["self"],
          "properties": {
            "self": {
              "type": "object",
              "required": ["href"],
              "properties": { "href": { "type": "string", "minLength": 1 } }
            }
          }
        }
      }
    }
  }
}`

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		if err := compiler.AddResource("envelope.json", strings.NewReader(envelopeSchema)); err != nil {
			schemaErr = err
			return
		}
		schema, schemaErr = compiler.Compile("envelope.json")
	})
	return schema, schemaErr
}

type link struct {
	Href string `json:"href"`
}

type item struct {
	Draft
	Links struct {
		Self link `json:"self"`
	} `json:"_links"`
}

type envelope struct {
	Embedded map[string][]item `json:"_embedded"`
}

// DecodeCollection parses a HAL collection body into cars, in server order.
func DecodeCollection(body []byte, opts DecodeOptions) ([]Car, error) {
	rel := opts.Rel
	if rel == "" {
		rel = DefaultRel
	}

	var doc interface{}
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("%w: body is not JSON: %v", ErrShape, err)
	}

	sch, err := compiledSchema()
	if err != nil {
		return nil, fmt.Errorf("envelope schema: %w", err)
	}
	if err := sch.Validate(doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrShape, err)
	}

	// A null relation counts as missing.
	if found := jp.C("_embedded").C(rel).Get(doc); len(found) == 0 || found[0] == nil {
		if opts.Strict {
			return nil, fmt.Errorf("%w: missing _embedded.%s", ErrShape, rel)
		}
		return []Car{}, nil
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrShape, err)
	}

	items := env.Embedded[rel]
	cars := make([]Car, 0, len(items))
	seen := make(map[string]bool, len(items))
	for i, it := range items {
		id, err := IDFromHref(it.Links.Self.Href)
		if err != nil {
			return nil, fmt.Errorf("%w: item %d: %v", ErrShape, i, err)
		}
		if seen[id] {
			return nil, fmt.Errorf("%w: duplicate id %q", ErrShape, id)
		}
		seen[id] = true
		cars = append(cars, Car{ID: id, Draft: it.Draft})
	}
	return cars, nil
}

// IDFromHref returns the final path segment of a self link, unescaped.
// Query strings and fragments are not part of the id.
func IDFromHref(href string) (string, error) {
	path := href
	if u, err := url.Parse(href); err == nil {
		path = u.EscapedPath()
	}
	segment := path[strings.LastIndex(path, "/")+1:]
	if segment == "" {
		return "", fmt.Errorf("%w: %q", ErrNoSelfLink, href)
	}
	id, err := url.PathUnescape(segment)
	if err != nil {
		return segment, nil
	}
	return id, nil
}

// EncodeItem renders c the way the server embeds it in a collection, with a
// self link under base. Used by the stub server.
func EncodeItem(c Car, base string) map[string]interface{} {
	self := strings.TrimRight(base, "/") + "/" + url.PathEscape(c.ID)
	return map[string]interface{}{
		FieldBrand:     c.Brand,
		FieldModel:     c.Model,
		FieldColor:     c.Color,
		FieldFuel:      c.Fuel,
		FieldModelYear: c.ModelYear,
		FieldPrice:     c.Price,
		"_links": map[string]interface{}{
			"self": link{Href: self},
			"car":  link{Href: self},
		},
	}
}
