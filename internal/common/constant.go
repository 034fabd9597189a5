// Package common contains shared constants and sentinel errors used across
// FaceLock components.
package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// access token on outbound requests.
const AccessTokenHeaderName = "access_token"

// TombstoneMessage replaces the content of a destroyed item for both parties.
const TombstoneMessage = "MESSAGE DELETED"

// DefaultMaxAttempts is the failed-verification budget of a new item.
const DefaultMaxAttempts = 3
