package stub

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"
)

const openAPIDocument = `
openapi: 3.0.3
info:
  title: carshop stub
  version: "1.0"
paths:
  /cars:
    get:
      responses:
        "200":
          description: HAL collection of cars
    post:
      requestBody:
        required: true
        content:
          application/json:
            schema:
              $ref: '#/components/schemas/CarInput'
      responses:
        "201":
          description: created
  /cars/{id}:
    parameters:
      - name: id
        in: path
        required: true
        schema:
          type: string
    get:
      responses:
        "200":
          description: one car
    put:
      requestBody:
        required: true
        content:
          application/json:
            schema:
              $ref: '#/components/schemas/CarInput'
      responses:
        "200":
          description: replaced
    delete:
      responses:
        "204":
          description: deleted
components:
  schemas:
    CarInput:
      type: object
      required: [brand, model, color, fuel, modelYear, price]
      properties:
        brand:
          type: string
          minLength: 1
        model:
          type: string
          minLength: 1
        color:
          type: string
          minLength: 1
        fuel:
          type: string
          minLength: 1
        modelYear:
          type: integer
        price:
          type: number
`

// inputSchema loads the embedded document and returns the car input schema.
func inputSchema() (*openapi3.Schema, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData([]byte(openAPIDocument))
	if err != nil {
		return nil, fmt.Errorf("load openapi document: %w", err)
	}
	if err := doc.Validate(context.Background()); err != nil {
		return nil, fmt.Errorf("invalid openapi document: %w", err)
	}
	ref, ok := doc.Components.Schemas["CarInput"]
	if !ok || ref.Value == nil {
		return nil, fmt.Errorf("openapi document has no CarInput schema")
	}
	return ref.Value, nil
}

// validateInput checks a raw request body against schema.
func validateInput(schema *openapi3.Schema, body []byte) error {
	var value interface{}
	if err := json.Unmarshal(body, &value); err != nil {
		return &ValidationError{Message: "body is not valid JSON"}
	}
	if err := schema.VisitJSON(value); err != nil {
		return &ValidationError{Message: err.Error()}
	}
	return nil
}
