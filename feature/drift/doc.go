// Package drift reports and repairs differences between the rc.conf that
// generation would write and the one currently published under the mount
// point. It wires core/reconcile to the defaults, overrides and generate
// features.
//
// # HTTP Endpoints
//
//   - GET /drift : Full report (results and summary, no actions).
//   - GET /drift/:key : Report for one variable, served from the cache.
//   - POST /drift/apply?prune=true&publish=true&dry_run=false : Plans and applies actions.
package drift
