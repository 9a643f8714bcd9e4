// Package credstore is the boundary to the OS credential subsystem. Two
// variants implement the same contract: the default build talks to the
// platform keychain in-process, the "delegated" build shells out to
// powershell.exe for environments (WSL) where the in-process path cannot
// reach the host's Credential Manager.
package credstore

import "errors"

// ErrNotFound is returned by Get and Delete when no entry exists for the
// name. Absence is an expected condition, not a store failure.
var ErrNotFound = errors.New("secret not found")

// Service is the store-side namespace all entries live under.
const Service = "hushkey"

// Store is the capability set both variants provide. Set creates or
// overwrites; a failed Set leaves the prior entry intact.
type Store interface {
	Get(name string) (string, error)
	Set(name, secret string) error
	Delete(name string) error
}

var Default Store // set in init of the variant selected at build time
