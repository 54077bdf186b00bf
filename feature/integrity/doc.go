// Package integrity provides health checks for the generated configuration
// and the infrastructure behind it.
//
// # Checks Provided
//
//   - Defaults: Lints the embedded rc.conf (key="value" syntax, documented keys assigned once, quoting, round trip).
//   - Database: Validates that the override table matches the Override model (columns, types).
//   - Storage: Checks that the bucket and the generated/ folder exist.
//   - Published: Checks that every managed file has a published copy in the bucket.
//
// Storage and database checks report "skipped" when the component is not configured.
//
// # HTTP Endpoints
//
//   - GET /integrity : Runs all checks.
//   - GET /integrity/defaults : Lints the defaults.
//   - GET /integrity/database : Runs the schema check.
//   - GET /integrity/storage : Runs the storage check (supports ?fix=true).
//   - GET /integrity/published : Runs the published files check.
package integrity
