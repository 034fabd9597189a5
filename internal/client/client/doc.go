// Package client talks to the FaceLock server over gRPC.
//
// GRPCClient attaches the access token and preferred language to every call,
// uses the JSON codec the server registers, and maps gRPC status codes to the
// sentinel errors in this package so callers can match them with errors.Is.
//
// Unlock outcomes, including failed and busy attempts, are results rather
// than errors; only transport and request problems surface as errors.
//
// LocalState is the CLI's optional sqlite file; it remembers what watch has
// already seen.
package client
