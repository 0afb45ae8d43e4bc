// ABOUTME: Root leaksentinel package providing version information and package documentation
// ABOUTME: This is the root package for the static-holder leak sentinel

// Package leaksentinel reproduces the static-holder leak, where a
// process-wide reference outlives the controller it points to, and checks
// that a remedy prevents it. The sentinel package holds the registry,
// reference strategies and lifecycle probe; retention explains what a
// leaked owner keeps alive; snapshot encodes reports and graphs.
package leaksentinel

// Version is the semantic version of the leaksentinel tool
const Version = "0.1.0-dev"
