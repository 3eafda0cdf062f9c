// Package server assembles microshop from its configuration.
//
// New opens the SQLite store, seeds identities into the configured backend,
// builds the four authentication strategies and mounts the API, health and
// metrics routes behind the request logging middleware. Run serves HTTP until
// its context is canceled and then shuts everything down within five seconds.
package server
