// Package testutil contains builders that keep transcript fixtures short in
// tests. It is not intended for production usage.
package testutil
