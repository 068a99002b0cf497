// Package discovery implements component C14, the service announcer: a
// thin mDNS/DNS-SD wrapper that advertises a running scheduler instance on
// the local network. Demo-harness only — no core package imports this one.
// Grounded on the teacher's src/dns_sd.go and src/dns_sd_common.go, adapted
// from announcing a KISS-over-TCP TNC to announcing a spacelinkd control
// plane.
package discovery

import (
	"context"
	"os"
	"strings"

	"github.com/brutella/dnssd"
	"github.com/charmbracelet/log"
)

// ServiceType is the DNS-SD service type spacelinkd instances announce
// themselves under.
const ServiceType = "_spacelinkd._tcp"

// Announcer wraps a dnssd responder for one advertised service record.
type Announcer struct {
	logger    *log.Logger
	responder dnssd.Responder
	cancel    context.CancelFunc
}

// DefaultServiceName mirrors the teacher's "<product> on <hostname>"
// convention, falling back to a bare product name if the hostname cannot be
// resolved.
func DefaultServiceName() string {
	hostname, err := os.Hostname()
	if err != nil {
		return "spacelinkd"
	}
	hostname, _, _ = strings.Cut(hostname, ".")
	return "spacelinkd on " + hostname
}

// Announce registers a _spacelinkd._tcp service record for the control
// plane listening on port, starting a background responder goroutine. Call
// Shutdown to withdraw the record and stop the responder.
func Announce(ctx context.Context, logger *log.Logger, name string, port int) (*Announcer, error) {
	if name == "" {
		name = DefaultServiceName()
	}

	cfg := dnssd.Config{
		Name: name,
		Type: ServiceType,
		Port: port,
	}

	svc, err := dnssd.NewService(cfg)
	if err != nil {
		return nil, err
	}

	responder, err := dnssd.NewResponder()
	if err != nil {
		return nil, err
	}

	if _, err := responder.Add(svc); err != nil {
		return nil, err
	}

	respondCtx, cancel := context.WithCancel(ctx)
	a := &Announcer{logger: logger, responder: responder, cancel: cancel}

	go func() {
		if err := responder.Respond(respondCtx); err != nil && respondCtx.Err() == nil {
			if a.logger != nil {
				a.logger.Error("dns-sd responder stopped", "err", err)
			}
		}
	}()

	if a.logger != nil {
		a.logger.Info("dns-sd announcing service", "name", name, "type", ServiceType, "port", port)
	}

	return a, nil
}

// Shutdown withdraws the service record and stops the responder goroutine.
func (a *Announcer) Shutdown() {
	if a == nil {
		return
	}
	a.cancel()
}
