// Package cli implements the facelock command-line client.
//
// Commands:
//   - send: lock a message or file for a recipient
//   - placeholder: show an item's locked/unlocked/destroyed placeholder
//   - unlock / cancel: attempt an unlock with a face probe, or abort one
//   - watch: stream item state changes and intrusion alerts
//   - seen: list items watch has observed (needs --state-db)
//   - risk: run a risk assessment for a session
//   - face enroll / face status: manage the caller's reference face
//   - token: mint a development access token
//
// Interrupting a running unlock (Ctrl-C) cancels it on the server too.
package cli
