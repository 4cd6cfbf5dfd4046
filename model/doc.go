// Package model defines the provider‑agnostic LLM capability consumed by
// agent units inside AgentCrew.
//
// Core goals:
//   - Keep the capability a single blocking Ask call: prompt in, text out
//   - Keep request/response shapes minimal and transport independent
//   - Facilitate deterministic mocking for tests (MockLLM)
//
// Providers (e.g. OpenAI, Anthropic) implement the LLM interface from this
// package so higher layers (agents, engine) remain decoupled from vendor
// SDKs. One LLM handle may be shared across concurrent executions; it is the
// only collaborator besides the agent catalog for which that is allowed, so
// implementations must be safe for concurrent use.
package model
