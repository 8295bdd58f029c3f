// Package model defines the provider‑agnostic abstractions and concrete
// helpers for interacting with language models inside AgentCrew.
//
// Core goals:
//   - Unify streaming + non‑streaming generation behind a single interface
//   - Keep request/response shapes minimal and transport independent
//   - Adapt any Model to the core.Backend capability (NewBackend)
//   - Facilitate lightweight mocking for tests and demos (MockModel)
//
// Providers (e.g. OpenAI, Anthropic) implement the Model interface from this
// package so higher layers (dispatcher, engine) remain decoupled from vendor SDKs.
package model
