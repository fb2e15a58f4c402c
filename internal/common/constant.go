// Package common contains shared constants, sentinel errors and small
// helpers used across gophstore components.
package common

const (
	// CollectionSecretSize is the number of random bytes behind a collection secret.
	CollectionSecretSize = 24

	// SessionTokenSize is the number of random bytes behind a session token.
	SessionTokenSize = 32
)
