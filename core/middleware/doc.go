// Package middleware contains HTTP middleware for the Fiber application.
//
// # Components
//
//   - auth: API key validation to protect endpoints.
//   - rayid: a unique Request ID (RayID) for every incoming request,
//     injected into the context and response headers for tracing.
//
// The start command registers rayid first, then the request logger, then auth.
package middleware
