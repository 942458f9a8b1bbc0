package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"slices"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainItem       = "asngen/item/v1"
	DomainMembership = "asngen/membership/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// ItemKey computes the content-addressed key of an item.
// Two items with identical attributes share a key.
func ItemKey(item Item) (string, error) {
	canonical, err := MarshalCanonical(item)
	if err != nil {
		return "", fmt.Errorf("ItemKey: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainItem, canonical), nil
}

// MustItemKey is like ItemKey but panics on error.
// Items only hold strings, so marshaling cannot fail in practice.
func MustItemKey(item Item) string {
	key, err := ItemKey(item)
	if err != nil {
		panic(err)
	}
	return key
}

// MembershipHash identifies an association by rule and member set,
// independent of member order. Used to collapse duplicate associations.
func MembershipHash(rule string, members []Item) (string, error) {
	keys := make([]string, len(members))
	for i, m := range members {
		k, err := ItemKey(m)
		if err != nil {
			return "", fmt.Errorf("MembershipHash: %w", err)
		}
		keys[i] = k
	}
	slices.Sort(keys)
	keys = slices.Compact(keys)

	canonical, err := MarshalCanonical(map[string]any{
		"rule":    rule,
		"members": keys,
	})
	if err != nil {
		return "", fmt.Errorf("MembershipHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainMembership, canonical), nil
}
