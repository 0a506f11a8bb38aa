// Package client contains the portal transport for tjuecard.
//
// # Overview
//
// The package provides:
//  1. A transport-agnostic contract (see the Client interface) covering the
//     handful of /epay pages and endpoints the tool touches: the login form
//     and its processing endpoint, the personal index used as a session
//     probe, the electricity index and bill pages, the bill query and the
//     room hierarchy option endpoints.
//  2. A concrete net/http implementation (see HTTPClient) holding a cookie
//     jar whose contents can be exported to and imported from a
//     models.Session.
//
// # Error Handling
//
// Transport failures (dial, timeout, reset) wrap ErrUnavailable; responses
// outside 2xx wrap ErrUnexpectedStatus. Deciding what a 200 page means is left
// to the caller.
//
// Every request carries the caller's context and a fixed per-request
// timeout (common.RequestTimeout). HTTPClient is not meant for concurrent use.
package client
