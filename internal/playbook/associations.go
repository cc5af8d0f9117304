package playbook

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// RouteAssociations maps a player marker id to the ids of the routes drawn
// for that player.
//
// Older clients stored the mapping as a list of [playerId, [routeId...]]
// pairs, and documents written through the sanitizer carry that list as an
// index-keyed object. All three shapes decode to the same mapping; encoding
// always produces the keyed mapping.
type RouteAssociations map[string][]string

func (a *RouteAssociations) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*a = nil
		return nil
	}

	switch data[0] {
	case '[':
		var pairs []json.RawMessage
		if err := json.Unmarshal(data, &pairs); err != nil {
			return fmt.Errorf("decoding association pairs: %w", err)
		}
		return a.fromPairs(pairs)
	case '{':
		var raw map[string]json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("decoding association map: %w", err)
		}
		if pairs, ok := indexedPairs(raw); ok {
			return a.fromPairs(pairs)
		}
		out := make(RouteAssociations, len(raw))
		for playerID, v := range raw {
			var routes []string
			if err := json.Unmarshal(v, &routes); err != nil {
				return fmt.Errorf("decoding routes for player %q: %w", playerID, err)
			}
			out[playerID] = routes
		}
		*a = out
		return nil
	default:
		return fmt.Errorf("player route associations: unexpected JSON %q", data[:1])
	}
}

func (a *RouteAssociations) fromPairs(pairs []json.RawMessage) error {
	out := make(RouteAssociations, len(pairs))
	for i, p := range pairs {
		playerID, routes, ok := decodePair(p)
		if !ok {
			return fmt.Errorf("player route associations: entry %d is not a [playerId, routeIds] pair", i)
		}
		out[playerID] = append(out[playerID], routes...)
	}
	*a = out
	return nil
}

func decodePair(raw json.RawMessage) (string, []string, bool) {
	var pair []json.RawMessage
	if err := json.Unmarshal(raw, &pair); err != nil || len(pair) != 2 {
		return "", nil, false
	}
	var playerID string
	if err := json.Unmarshal(pair[0], &playerID); err != nil {
		return "", nil, false
	}
	var routes []string
	if err := json.Unmarshal(pair[1], &routes); err != nil {
		return "", nil, false
	}
	return playerID, routes, true
}

// indexedPairs recognizes a pair list that was stored as {"0": pair, ...}.
// Entries are taken in numeric key order.
// A keyed mapping whose player ids happen to be "0".."n-1" is not mistaken
// for it: its values are route id lists, not pairs.
func indexedPairs(raw map[string]json.RawMessage) ([]json.RawMessage, bool) {
	if len(raw) == 0 {
		return nil, false
	}
	idx, ok := numericKeys(keysOf(raw))
	if !ok {
		return nil, false
	}
	pairs := make([]json.RawMessage, len(idx))
	for i, k := range idx {
		if _, _, ok := decodePair(raw[k]); !ok {
			return nil, false
		}
		pairs[i] = raw[k]
	}
	return pairs, true
}

func keysOf[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}

// numericKeys returns keys sorted numerically when every key is a
// non-negative integer in canonical form. Gaps are allowed.
func numericKeys(keys []string) ([]string, bool) {
	nums := make([]int, len(keys))
	for i, k := range keys {
		n, err := strconv.Atoi(k)
		if err != nil || n < 0 || strconv.Itoa(n) != k {
			return nil, false
		}
		nums[i] = n
	}
	sort.Ints(nums)
	out := make([]string, len(nums))
	for i, n := range nums {
		out[i] = strconv.Itoa(n)
	}
	return out, true
}
