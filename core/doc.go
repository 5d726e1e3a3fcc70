// Package core defines the domain model for the Argus monitoring engine.
//
// The core package provides:
//   - Domain types (SecurityEvent, AnomalyPattern, AlertRule, Alert)
//   - Leaf components shared by both evaluation paths (BoundedHistory,
//     CooldownGate, CircuitBreaker)
//   - Deterministic risk scoring
//   - The MetricsProvider collaborator interface read by alert rule
//     conditions
//
// Design principles:
//  1. Collaborator interfaces are defined here, implemented elsewhere
//  2. Explicit construction and dependency injection, no global lookups
//  3. context.Context on every operation that may block
//  4. Typed sentinel errors with wrapping
package core
