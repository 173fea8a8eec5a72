// Package mocks provides mock implementations for testing the auth ports.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for
// the interfaces in internal/ports. The generated files are committed so tests
// build without running codegen.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
package mocks

// Generate mock for IdentitySource interface from internal/ports.
// This creates MockIdentitySource with FetchIdentity and FetchPermissions.
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=identity_source_mock.go github.com/escuelahq/escuela-ui-api/internal/ports IdentitySource

// Generate mock for SessionStore interface from internal/ports.
// This creates MockSessionStore with Save, Get and Delete.
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=session_store_mock.go github.com/escuelahq/escuela-ui-api/internal/ports SessionStore
