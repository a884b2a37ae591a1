// Copyright 2025 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

package transport

import (
	"net/http"
	"net/url"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/sunyihoo/walletcore/log"
)

// originValidator returns a websocket CheckOrigin function for the allow
// list. "*" accepts every origin. When requireOrigin is set, requests without
// an Origin header are refused: the provider endpoint scopes permissions by
// origin and cannot serve anonymous callers.
func originValidator(allowedOrigins []string, requireOrigin bool) func(*http.Request) bool {
	origins := mapset.NewSet[string]()
	allowAll := false
	for _, origin := range allowedOrigins {
		if origin == "*" {
			allowAll = true
		}
		if origin != "" {
			origins.Add(strings.ToLower(origin))
		}
	}
	log.Debug("Allowed websocket origins", "origins", origins.ToSlice(), "required", requireOrigin)

	return func(req *http.Request) bool {
		if _, ok := req.Header["Origin"]; !ok {
			return !requireOrigin
		}
		origin := strings.ToLower(req.Header.Get("Origin"))
		if origin == "" || origin == "null" {
			return false
		}
		if allowAll || originIsAllowed(origins, origin) {
			return true
		}
		log.Warn("Rejected websocket connection", "origin", origin)
		return false
	}
}

func originIsAllowed(allowedOrigins mapset.Set[string], browserOrigin string) bool {
	for _, origin := range allowedOrigins.ToSlice() {
		if ruleAllowsOrigin(origin, browserOrigin) {
			return true
		}
	}
	return false
}

// ruleAllowsOrigin matches scheme, hostname and port. Parts missing from the
// rule match anything.
func ruleAllowsOrigin(allowedOrigin string, browserOrigin string) bool {
	allowedScheme, allowedHostname, allowedPort, err := parseOriginURL(allowedOrigin)
	if err != nil {
		log.Warn("Error parsing allowed origin specification", "spec", allowedOrigin, "err", err)
		return false
	}
	browserScheme, browserHostname, browserPort, err := parseOriginURL(browserOrigin)
	if err != nil {
		log.Warn("Error parsing browser 'Origin' field", "origin", browserOrigin, "err", err)
		return false
	}
	if allowedScheme != "" && allowedScheme != browserScheme {
		return false
	}
	if allowedHostname != "" && allowedHostname != browserHostname {
		return false
	}
	if allowedPort != "" && allowedPort != browserPort {
		return false
	}
	return true
}

func parseOriginURL(origin string) (string, string, string, error) {
	parsedURL, err := url.Parse(strings.ToLower(origin))
	if err != nil {
		return "", "", "", err
	}
	var scheme, hostname, port string
	if strings.Contains(origin, "://") {
		scheme = parsedURL.Scheme
		hostname = parsedURL.Hostname()
		port = parsedURL.Port()
	} else {
		// "host" or "host:port": url.Parse reads the host as the scheme.
		scheme = ""
		hostname = parsedURL.Scheme
		port = parsedURL.Opaque
		if hostname == "" {
			hostname = origin
		}
	}
	return scheme, hostname, port, nil
}
