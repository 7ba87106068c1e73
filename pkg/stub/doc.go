// Package stub serves an in-memory /cars collection in the same HAL shape
// as the production car service.
//
// It backs the tests of the client packages and the `carshop stub` command
// used for local development. Behavior worth knowing:
//
//   - ids are sequential integers assigned on create, so the self link of
//     the first created car ends in /cars/1;
//   - POST and PUT bodies are validated against an embedded OpenAPI
//     document: every field required, modelYear an integer, price a number;
//   - every request is counted (Requests), and FailNext queues an error
//     status for the next request with a given method.
package stub
