// Package modeladapter defines the interface and types for generation service
// adapters.
//
// It contains:
//   - [Request] and [Completion], the provider-neutral request and reply
//   - [Completer] interface and embeddable [ModelAdapter] base struct with HTTP helpers, auth, and custom headers
//   - [ErrNoChoices] and [StatusError], the two service failure shapes
//
// This package contains no provider-specific code. Concrete adapters live in
// separate packages that import modeladapter.
package modeladapter
