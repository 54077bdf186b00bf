// Package generate renders managed configuration files from templates and
// writes them under the /etc mount point.
//
// Templates are discovered by scanning the configured plugin directories.
// A template named "<file>.<ext>" manages "<file>" and is rendered by the
// renderer registered for ".<ext>":
//
//	.rcconf  rc.conf defaults overlaid with the database overrides
//	.tmpl    text/template executed with the effective values
//	.shell   sh script whose standard output is the file
//
// The embedded rc.conf defaults are always managed unless a plugin directory
// ships its own rc.conf template. The service is exposed over HTTP and as
// the etcd.generation and etcd.management NATS methods.
package generate
