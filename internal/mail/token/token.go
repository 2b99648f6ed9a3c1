// Package token derives the short reply tokens that correlate inbound email
// replies with the order thread that started them.
package token

import (
	"regexp"
	"strings"
)

// Prefix marks stored reply tokens.
const Prefix = "ord-"

var inboundAddressPattern = regexp.MustCompile(`(?i)order-([0-9a-z]+)@[^\s>@]+`)

// Encode derives the reply token stored on outbound communications: the
// prefix plus the first 8 characters of the order id.
func Encode(orderID string) string {
	slug := orderID
	if len(slug) > 8 {
		slug = slug[:8]
	}
	return Prefix + slug
}

// Slug returns the address-embeddable portion of an encoded token.
func Slug(tok string) string {
	return strings.TrimPrefix(tok, Prefix)
}

// Address builds the synthetic reply-to address for an order on the
// configured inbound domain.
func Address(orderID, inboundDomain string) string {
	return "order-" + Slug(Encode(orderID)) + "@" + inboundDomain
}

// Decode extracts a reply token from an RFC 5322 To header value. The header
// may carry display names, angle brackets, or multiple addresses; the first
// order-<slug>@domain match wins. A missing match is normal and returns the
// empty string, never an error.
func Decode(toHeader string) string {
	m := inboundAddressPattern.FindStringSubmatch(toHeader)
	if m == nil {
		return ""
	}
	return Prefix + strings.ToLower(m[1])
}
