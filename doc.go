/*
Package striptease encodes and decodes binary structures described by a
tree of tokens.

A schema is a Struct of named tokens in wire order: numbers, padding, arrays
and raw byte strings, checksums, and nested structs. A sequence's length can
be fixed (Static), taken from an integer field declared earlier (Dynamic), or
cover whatever is left (Consumer). All numbers are big-endian.

	var packet = striptease.MustStruct("packet",
		striptease.Uint8("id"),
		striptease.Uint8("len"),
		striptease.Uint8("data").Of(striptease.Dynamic("len")),
	)

	b, err := packet.Encode(striptease.Values{
		"id":   striptease.Uint(100),
		"data": striptease.Uints(1, 2, 3),
	})
	// b == []byte{100, 3, 1, 2, 3}, and "len" is now 3

	rest, values, err := striptease.Decode(packet, b, nil)

On encode, every Dynamic length field is overwritten with the length of the
data it describes before anything is written, so callers never supply it.
On decode the length field has to come first on the wire.

Schemas are immutable and may be shared between goroutines. A value map
belongs to one call at a time. A failed call returns no bytes and leaves the
caller's value map as it was.
*/
package striptease
