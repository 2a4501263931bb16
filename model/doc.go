// Package model defines the provider‑agnostic abstractions for talking to
// policy backends (language models) from agentchat agents.
//
// Core goals:
//   - Unify streaming + non‑streaming generation behind a single interface
//   - Normalize tool / function call representation (ToolDefinition)
//   - Keep request/response shapes minimal and transport independent
//   - Facilitate lightweight mocking for tests (MockModel)
//
// Providers (OpenAI, Azure OpenAI, Anthropic) implement the Model interface in
// sub-packages. Cross-cutting wrappers such as rate limiting live here; the
// response cache lives in package cache.
package model
