// ABOUTME: Package documentation for the leak sentinel core
// ABOUTME: Describes the holder registry, reference strategies, and probe

// Package sentinel reproduces and checks the static-holder leak: a
// process-wide slot that keeps a short-lived controller reachable after the
// controller has been destroyed.
//
// A Registry is the slot. Each registration stores an Owner under a
// Strategy that decides how the slot resolves it:
//
//   - Strong keeps the owner reachable unconditionally. This is the leak.
//   - Weak holds a non-owning link and reports nothing once the owner is
//     destroyed.
//   - Cleared holds the owner like Strong, and relies on the controller
//     calling Clear from its destroy hook.
//
// A Probe drives create/register/destroy cycles against a Registry and
// reports whether the destroyed owner is still reachable.
//
// The package-level Register, Current and Clear functions operate on a
// single default registry, standing in for the static field itself.
package sentinel
