// Package common defines shared constants and sentinel errors used across
// the query run and the setup wizard. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Configuration errors. Fatal, the user has to re-run setup.
	ErrConfigMissing      = errors.New("config missing")
	ErrConfigInvalid      = errors.New("config invalid")
	ErrCredentialsMissing = errors.New("credentials missing")

	// Authentication errors.
	ErrAuthInvalidCredentials = errors.New("invalid credentials")
	ErrAuthNetworkFailure     = errors.New("auth network failure")

	// Session lifecycle errors.
	ErrTokenExtractionFailed = errors.New("csrf token extraction failed")
	ErrSessionExpired        = errors.New("session expired")

	// Billing errors.
	ErrBillingBusiness          = errors.New("billing business error")
	ErrBillingNetworkFailure    = errors.New("billing network failure")
	ErrBillingMalformedResponse = errors.New("billing malformed response")

	// Crypto errors.
	ErrCryptoKeyNotFound       = errors.New("data key not found")
	ErrCryptoKeyUnavailable    = errors.New("data key unavailable")
	ErrCryptoAlgorithmMismatch = errors.New("algorithm mismatch")
	ErrCryptoAuthFailure       = errors.New("ciphertext authentication failed")

	// Notification errors. Never escalated to process failure.
	ErrNotificationFailure = errors.New("notification failure")
)
