// Package testutil contains helper builders and assertions used across tests
// to reduce boilerplate when constructing sessions, tool calls and small
// agent catalogs. It is not intended for production usage.
package testutil
