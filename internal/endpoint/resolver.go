// Package endpoint maps a user supplied specifier to one MIDI endpoint.
package endpoint

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/leandrodaf/midiprobe/sdk/contracts"
)

var (
	ErrNoEndpoints     = errors.New("no MIDI endpoints found")
	ErrIndexOutOfRange = errors.New("endpoint index out of range")
	ErrNotFound        = errors.New("no matching MIDI endpoint")
	ErrAmbiguous       = errors.New("ambiguous MIDI endpoint")
)

// Resolver resolves specifiers against an ordered endpoint list. The same
// rules apply to destinations and sources; Direction only shapes messages.
type Resolver struct {
	Direction contracts.Direction
}

// Resolve picks an endpoint by index, then exact name, then unique substring.
// Name comparisons are case-insensitive.
func (r Resolver) Resolve(query string, endpoints []contracts.EndpointInfo) (contracts.EndpointInfo, error) {
	if len(endpoints) == 0 {
		return contracts.EndpointInfo{}, fmt.Errorf("%w: no MIDI %ss available, enable the IAC Driver or attach a MIDI device", ErrNoEndpoints, r.Direction)
	}

	if isUnsignedInteger(query) {
		idx, err := strconv.ParseUint(query, 10, 64)
		if err != nil || idx >= uint64(len(endpoints)) {
			return contracts.EndpointInfo{}, fmt.Errorf("%w: %s index %s (have %d)", ErrIndexOutOfRange, r.Direction, query, len(endpoints))
		}
		return endpoints[idx], nil
	}

	partial := -1
	partialCount := 0
	needle := strings.ToLower(query)
	for i, ep := range endpoints {
		if strings.EqualFold(ep.Name, query) {
			return endpoints[i], nil
		}
		if strings.Contains(strings.ToLower(ep.Name), needle) {
			if partial < 0 {
				partial = i
			}
			partialCount++
		}
	}

	switch {
	case partialCount == 1:
		return endpoints[partial], nil
	case partialCount > 1:
		return contracts.EndpointInfo{}, fmt.Errorf("%w: %s %q matches %d endpoints, use --list and choose an index", ErrAmbiguous, r.Direction, query, partialCount)
	}
	return contracts.EndpointInfo{}, fmt.Errorf("%w: no %s matching %q, use --list to inspect options", ErrNotFound, r.Direction, query)
}

func isUnsignedInteger(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
