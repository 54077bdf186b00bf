// Package defaults ships the appliance's boot-time rc.conf.
//
// The file sets the hostname, service knobs, kernel module lists and the
// filesystem and crash-dump behavior the appliance boots with. It is embedded
// in the binary and never written back: values the administrator changes live
// in the overrides store and are layered on top when the file is generated.
//
// # HTTP Endpoints
//
//   - GET /defaults : the key/value mapping.
//   - GET /defaults/raw : the file verbatim.
//   - GET /defaults/:key : a single value.
package defaults
