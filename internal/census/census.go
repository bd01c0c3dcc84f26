// Netpulse - Personal Internet Connection Quality Monitor
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/netpulse

// Package census counts active devices on the local network with a
// bounded parallel ping sweep. The count is a best-effort annotation on
// samples, never a precondition for recording one.
package census

import (
	"context"
	"fmt"
	"net"
	"os/exec"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/netpulse/internal/logging"
	"github.com/tomtom215/netpulse/internal/metrics"
)

// Counter reports the number of active devices, always at least one:
// the machine running the census.
type Counter interface {
	CountActiveDevices(ctx context.Context) (int, error)
}

// PingSweeper pings every host of a /24 subnet and counts responders.
type PingSweeper struct {
	subnet      string
	workers     int
	pingTimeout time.Duration
}

// NewPingSweeper builds a sweeper. An empty subnet is derived from the
// default route at sweep time. Workers defaults to 32, the ping timeout
// to one second.
func NewPingSweeper(subnet string, workers int, pingTimeout time.Duration) *PingSweeper {
	if workers <= 0 {
		workers = 32
	}
	if pingTimeout <= 0 {
		pingTimeout = time.Second
	}
	return &PingSweeper{
		subnet:      subnet,
		workers:     workers,
		pingTimeout: pingTimeout,
	}
}

// CountActiveDevices sweeps the subnet and returns the responder count,
// never less than one.
func (s *PingSweeper) CountActiveDevices(ctx context.Context) (int, error) {
	subnet := s.subnet
	if subnet == "" {
		derived, err := localSubnet()
		if err != nil {
			return 1, fmt.Errorf("failed to derive local subnet: %w", err)
		}
		subnet = derived
	}

	prefix, err := subnetPrefix(subnet)
	if err != nil {
		return 1, err
	}

	start := time.Now()
	var alive atomic.Int64

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for host := 1; host <= 254; host++ {
		addr := prefix + strconv.Itoa(host)
		g.Go(func() error {
			if s.ping(ctx, addr) {
				alive.Add(1)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 1, err
	}

	count := int(alive.Load())
	if count < 1 {
		count = 1
	}

	metrics.ActiveDevices.Set(float64(count))
	logging.Debug().
		Str("subnet", subnet).
		Int("devices", count).
		Dur("took", time.Since(start)).
		Msg("Device census complete")
	return count, nil
}

// ping sends one echo request and reports whether the host answered.
func (s *PingSweeper) ping(ctx context.Context, addr string) bool {
	timeoutSec := int(s.pingTimeout.Seconds())
	if timeoutSec < 1 {
		timeoutSec = 1
	}

	cmd := exec.CommandContext(ctx, "ping", "-c", "1", "-W", strconv.Itoa(timeoutSec), addr)
	return cmd.Run() == nil
}

// localSubnet derives the /24 of the interface holding the default
// route. The UDP dial never sends a packet; it only resolves the local
// address.
func localSubnet() (string, error) {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return "", err
	}
	defer conn.Close()

	addr, ok := conn.LocalAddr().(*net.UDPAddr)
	if !ok {
		return "", fmt.Errorf("unexpected local address type %T", conn.LocalAddr())
	}
	ip := addr.IP.To4()
	if ip == nil {
		return "", fmt.Errorf("local address %s is not IPv4", addr.IP)
	}
	return fmt.Sprintf("%d.%d.%d.0/24", ip[0], ip[1], ip[2]), nil
}

// subnetPrefix validates a /24 CIDR and returns its dotted prefix with
// a trailing dot, e.g. "192.168.1.".
func subnetPrefix(subnet string) (string, error) {
	ip, ipNet, err := net.ParseCIDR(subnet)
	if err != nil {
		return "", fmt.Errorf("invalid census subnet %q: %w", subnet, err)
	}
	if ones, bits := ipNet.Mask.Size(); bits != 32 || ones != 24 {
		return "", fmt.Errorf("census subnet %q must be an IPv4 /24", subnet)
	}

	v4 := ip.To4()
	parts := []string{
		strconv.Itoa(int(v4[0])),
		strconv.Itoa(int(v4[1])),
		strconv.Itoa(int(v4[2])),
	}
	return strings.Join(parts, ".") + ".", nil
}
