// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package gateway sends conversations to a model provider and classifies
// its failures.
//
// A Gateway wraps one Provider. New probes the provider once; a rejected
// credential fails construction, anything else is logged and tolerated.
// Call returns the reply verbatim or an *Error whose Kind is one of
// KindAuthentication, KindConnectivity or KindUnknown.
//
// # Classification
//
//   - Authentication: cloud.ErrAuthFailed (HTTP 401/403), missing key
//   - Connectivity: network and URL errors, deadline expiry, rate limiting,
//     HTTP 5xx, Ollama not running or timed out
//   - Unknown: everything else, including empty or malformed responses
//
// # Usage
//
//	client := cloud.NewClient(apiKey)
//	gw, err := gateway.New(ctx, gateway.NewOpenAIProvider(client),
//	    gateway.WithRateLimit(2, 1),
//	    gateway.WithLogger(logger))
//	if errors.Is(err, gateway.ErrAuthentication) {
//	    // ask for another key
//	}
//	reply, err := gw.Call(ctx, messages)
package gateway
