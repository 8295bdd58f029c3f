// Package core provides the foundational domain types and interfaces shared by
// every AgentCrew component. It defines the core abstractions for:
//
//   - Agents (AgentDescriptor + the opaque Backend capability)
//   - Tasks (free-text instruction, context map, target agents, Mode)
//   - Raw backend output (the closed RawOutput union)
//   - Clean results and collaboration results returned to callers
//   - The error taxonomy surfaced (or deliberately recovered) by the core
//
// The package intentionally keeps implementation concerns (normalization,
// dispatch, composition, routing) out of scope, exposing small types so the
// higher-level packages can depend on it without cyclic imports.
package core
