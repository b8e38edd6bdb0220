// Package hashcode provides type-safe document hash code identification
// for docuhash.
//
// Every registered document is identified by a full hash code of the form
// "PP-CCCCCCCCCCCC": a two-letter document-type prefix, a dash, and twelve
// characters drawn uniformly at random from [A-Z0-9]. A six-character short
// code is derived from the full code by selecting the even-positioned
// characters of the twelve-character tail, giving users something they can
// read off a printed footer and type back in.
//
// # Core Concepts
//
//  1. HashCode: The primary, globally unique document identifier assigned
//     at registration time. Immutable once assigned.
//
//  2. ShortCode: A lossy six-character derivation of a HashCode. Collisions
//     between distinct full codes are structurally possible and accepted;
//     lookups resolve them by first match in scan order.
//
//  3. DocumentType: The registry of known two-letter prefixes and their
//     display names (CM, IA, CE, IR, OT).
//
// # Usage Examples
//
//	// Generate a new code for an audit report
//	code, err := hashcode.Generate("IA")
//
//	// Parse user input
//	code, err := hashcode.Parse("cm-a1b2c3d4e5f6")
//	short := code.ShortCode() // "ABCDEF"
//
// HashCode and ShortCode implement json.Marshaler/Unmarshaler so they can be
// embedded directly in persisted record units and API payloads.
package hashcode
