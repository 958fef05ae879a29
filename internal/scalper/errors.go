package scalper

import (
	"context"
	"errors"
	"net"
	"strings"

	"bingx-scalping-bot/internal/risk"
)

// ErrorKind buckets a per-symbol failure so the scan loop can pick the
// right reaction: retry next cycle, degrade, or disable the account.
type ErrorKind string

const (
	// ErrorTransient covers connectivity problems: timeouts, resets,
	// rate limits. Retried next cycle.
	ErrorTransient ErrorKind = "transient"

	// ErrorSignature covers authentication and request-signing failures.
	// Read-only calls degrade to conservative assumptions.
	ErrorSignature ErrorKind = "signature"

	// ErrorDataUnavailable means the exchange returned too little history
	// for the pipeline. The symbol is a candidate for replacement.
	ErrorDataUnavailable ErrorKind = "data_unavailable"

	// ErrorRiskBreach means the computed levels failed validation and the
	// entry was abandoned.
	ErrorRiskBreach ErrorKind = "risk_breach"

	// ErrorInvariant is an internal inconsistency. Logged loudly.
	ErrorInvariant ErrorKind = "invariant"
)

// Sentinel errors raised inside the scan pipeline.
var (
	ErrSignature       = errors.New("request signature rejected")
	ErrDataUnavailable = errors.New("market data unavailable")
	ErrInvariant       = errors.New("internal invariant violated")
	ErrRiskBreach      = errors.New("risk levels rejected")
)

// signatureMarkers are substrings seen in exchange auth failures.
var signatureMarkers = []string{"signature", "api-key", "apikey", "auth", "permission denied", "timestamp for this request"}

// transientMarkers are substrings seen in connectivity failures.
var transientMarkers = []string{"timeout", "connection refused", "connection reset", "broken pipe", "too many requests", "rate limit", "temporarily", "eof", "service unavailable", "bad gateway"}

// ClassifyError maps an arbitrary pipeline error onto an ErrorKind.
func ClassifyError(err error) ErrorKind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrSignature):
		return ErrorSignature
	case errors.Is(err, ErrDataUnavailable), errors.Is(err, risk.ErrInsufficientData):
		return ErrorDataUnavailable
	case errors.Is(err, ErrRiskBreach):
		return ErrorRiskBreach
	case errors.Is(err, ErrInvariant):
		return ErrorInvariant
	case errors.Is(err, context.DeadlineExceeded):
		return ErrorTransient
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return ErrorTransient
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range signatureMarkers {
		if strings.Contains(msg, marker) {
			return ErrorSignature
		}
	}
	for _, marker := range transientMarkers {
		if strings.Contains(msg, marker) {
			return ErrorTransient
		}
	}
	return ErrorTransient
}
