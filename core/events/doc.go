// Package events connects the service to a NATS bus.
//
// It has two halves. Publishers emit JSON events when overrides change or
// files are generated, so other components can react (for example by
// restarting a service whose configuration was rewritten). The Dispatcher
// exposes the file generation methods as request/reply subjects, which lets
// other processes on the appliance ask for a file to be regenerated.
//
// When no NATS URL is configured the NoopPublisher is used and no RPC
// subjects are served.
package events
