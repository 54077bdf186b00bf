// Package server holds the HTTP server configuration.
//
// The start command builds the Fiber application from this configuration:
// the listen port, the API key that protects every route, and the graceful
// shutdown budget.
package server
