// Package cli provides the interactive DMO Clinic command-line client.
//
// It wires configuration, the local checklist store, the remote document
// store and the clinic services into a REPL. The caller's identity comes
// from the access token; clinician-only commands are hidden from patients.
//
// Key features:
//   - Profile, weight logging and milestone payouts
//   - Today's diet checklist with automatic reset at day rollover
//   - Diets, targets, milestones and points for clinicians
//   - Working hours and the patient/clinic chat
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
