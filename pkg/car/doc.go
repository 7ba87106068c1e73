// Package car defines the vehicle record shape and how records are read out
// of the HAL collection served at /cars.
//
// A record's id is never a field of the payload. It is the final path segment
// of the item's self link:
//
//	{"brand": "Toyota", ..., "_links": {"self": {"href": "https://host/cars/42"}}}
//
// yields Car{ID: "42", ...}.
//
// DecodeCollection checks the response against an embedded JSON schema before
// extracting items, so a body of the wrong shape fails with ErrShape instead of
// silently producing an empty list.
package car
