// Package overrides stores the administrator's rc.conf values.
//
// The shipped rc.conf only holds defaults. Every value changed through the
// API or CLI is stored as a row of the rc_overrides table and replaces the
// default of the same key when the file is generated. A key absent from the
// defaults is appended to the generated file.
//
// # HTTP Endpoints
//
//   - GET /overrides : all overrides.
//   - GET /overrides/effective : defaults with overrides applied.
//   - GET /overrides/:key : one override.
//   - PUT /overrides/:key : set an override, body {"value": ...}.
//   - DELETE /overrides/:key : remove an override.
package overrides
