// Netpulse - Personal Internet Connection Quality Monitor
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/netpulse

package monitor

import (
	"time"

	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"

	"github.com/tomtom215/netpulse/internal/logging"
)

// NewSupervisor builds the root supervisor for the daemon's long-lived
// services. Failure parameters follow suture's defaults; restart events
// land in the global log via the slog adapter.
func NewSupervisor() *suture.Supervisor {
	handler := &sutureslog.Handler{Logger: logging.NewSlogLogger()}

	return suture.New("netpulse", suture.Spec{
		EventHook:        handler.MustHook(),
		FailureThreshold: 5.0,
		FailureDecay:     30.0,
		FailureBackoff:   15 * time.Second,
		Timeout:          10 * time.Second,
	})
}
