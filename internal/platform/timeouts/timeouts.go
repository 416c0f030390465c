// Package timeouts defines the durations shared by the crowdfund server,
// its commands and its clients.
package timeouts

import "time"

// Dial caps the wait for a gRPC peer to connect and report SERVING.
const Dial = 2 * time.Second

// HealthProbe caps a single health check call.
const HealthProbe = time.Second

// GracefulStop bounds how long in-flight RPCs may drain before the server
// stops hard.
const GracefulStop = 5 * time.Second

// TelemetryShutdown bounds the final span flush.
const TelemetryShutdown = 5 * time.Second
