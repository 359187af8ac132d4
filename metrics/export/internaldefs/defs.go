package internaldefs

import (
	"github.com/MrEthical07/sessionauth"
)

// CounterDef names one engine counter for exporters.
type CounterDef struct {
	ID   sessionauth.MetricID
	Name string
	Help string
}

type HistogramDef struct {
	ID   sessionauth.MetricID
	Name string
	Help string
}

// AuditDroppedName is the counter for audit events lost to backpressure.
const AuditDroppedName = "sessionauth_audit_dropped_total"

// AuditDroppedHelp describes AuditDroppedName.
const AuditDroppedHelp = "Dropped audit events due to dispatcher backpressure."

var CounterDefs = []CounterDef{
	{ID: sessionauth.MetricLoginSuccess, Name: "sessionauth_login_success_total", Help: "Successful logins."},
	{ID: sessionauth.MetricLoginUserNotFound, Name: "sessionauth_login_user_not_found_total", Help: "Logins rejected for an unknown login key."},
	{ID: sessionauth.MetricLoginInvalidCredentials, Name: "sessionauth_login_invalid_credentials_total", Help: "Logins rejected for a wrong password."},
	{ID: sessionauth.MetricSessionCreated, Name: "sessionauth_session_created_total", Help: "Sessions recorded by the create callback."},
	{ID: sessionauth.MetricSessionCreateFailed, Name: "sessionauth_session_create_failed_total", Help: "Create callbacks that failed."},
	{ID: sessionauth.MetricSessionLoginSuccess, Name: "sessionauth_session_login_success_total", Help: "Sessions resolved to a user."},
	{ID: sessionauth.MetricSessionLoginFailure, Name: "sessionauth_session_login_failure_total", Help: "Sessions that did not resolve to a user."},
	{ID: sessionauth.MetricRegisterSuccess, Name: "sessionauth_register_success_total", Help: "Completed registrations."},
	{ID: sessionauth.MetricRegisterDuplicate, Name: "sessionauth_register_duplicate_total", Help: "Registrations rejected for a login key in use."},
	{ID: sessionauth.MetricRegisterInvalid, Name: "sessionauth_register_invalid_total", Help: "Registrations rejected as invalid."},
	{ID: sessionauth.MetricLogout, Name: "sessionauth_logout_total", Help: "Logout operations."},
	{ID: sessionauth.MetricDelete, Name: "sessionauth_delete_total", Help: "User deletions."},
}

var HistogramDefs = []HistogramDef{
	{ID: sessionauth.MetricLoginLatency, Name: "sessionauth_login_latency_seconds", Help: "Login latency including the lookup callback."},
}

// HistogramBounds are the bucket upper bounds in seconds; the last bucket is
// +Inf and has no entry.
var HistogramBounds = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5}

// HistogramBoundSuffix names each bucket, +Inf included, for exporters that
// flatten buckets into instruments.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets pads or truncates raw to the fixed bucket count.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
