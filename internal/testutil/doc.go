// Package testutil contains helper backends and utilities used across tests
// to reduce boilerplate when constructing agent registries and asserting
// dispatch behaviour (ordering, context propagation, failure handling).
// They are not intended for production usage.
package testutil
