// Package application is the composition root. It owns the credential store and
// the integrations, runs the initial activation, and builds the HTTP server that
// exposes the runtime override endpoints.
package application
