// Olapic Go SDK - Media Curation API Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/olapic-go

package logging

import (
	"net/url"
	"strings"
)

// sensitiveParams are query parameters never written to logs in clear.
var sensitiveParams = map[string]bool{
	"auth_token":   true,
	"auth_key":     true,
	"access_token": true,
	"api_key":      true,
	"token":        true,
}

// SanitizeToken masks a secret, keeping the first and last 4 characters.
func SanitizeToken(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= 12 {
		return "***"
	}
	return token[:4] + "..." + token[len(token)-4:]
}

// RedactURL masks the values of credential query parameters in raw. A value
// that does not parse as a URL is returned unchanged.
func RedactURL(raw string) string {
	if !strings.Contains(raw, "?") {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	changed := false
	for key, values := range q {
		if !sensitiveParams[strings.ToLower(key)] {
			continue
		}
		for i, v := range values {
			values[i] = SanitizeToken(v)
		}
		q[key] = values
		changed = true
	}
	if !changed {
		return raw
	}
	u.RawQuery = q.Encode()
	return u.String()
}
