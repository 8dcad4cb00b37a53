// Package openapi describes generated invoice forms as OpenAPI 3 documents so
// API clients can discover the payload a template footer accepts.
package openapi
