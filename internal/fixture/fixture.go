// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/gmarc

// Package fixture builds small synthetic FORM archives and media payloads for tests.
package fixture

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
)

const (
	pngSignature      = "\x89PNG\r\n\x1a\n"
	sectionHeaderSize = 8
	textureInfoSize   = 8
	oggPageHeaderSize = 27
)

// PNG builds a structurally valid PNG with an IDAT chunk of extra bytes.
// Pixel data is not decodable; only chunk framing is meaningful.
func PNG(width uint32, height uint32, extra int) []byte {
	out := []byte(pngSignature)

	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:4], width)
	binary.BigEndian.PutUint32(ihdr[4:8], height)
	ihdr[8] = 8 // bit depth
	ihdr[9] = 6 // RGBA
	out = appendPNGChunk(out, "IHDR", ihdr)

	idat := make([]byte, extra)
	for i := range idat {
		idat[i] = byte(i*7 + int(width))
	}
	out = appendPNGChunk(out, "IDAT", idat)

	return appendPNGChunk(out, "IEND", nil)
}

// appendPNGChunk appends one length-prefixed PNG chunk with CRC.
func appendPNGChunk(out []byte, typ string, payload []byte) []byte {
	out = binary.BigEndian.AppendUint32(out, uint32(len(payload))) //nolint:gosec // test sizes
	start := len(out)
	out = append(out, typ...)
	out = append(out, payload...)
	return binary.BigEndian.AppendUint32(out, crc32.ChecksumIEEE(out[start:]))
}

// WAV builds minimal RIFF WAVE payload with body filler bytes.
func WAV(body int) []byte {
	out := []byte("RIFF")
	out = binary.LittleEndian.AppendUint32(out, uint32(4+body)) //nolint:gosec // test sizes
	out = append(out, "WAVE"...)
	return append(out, bytes.Repeat([]byte{0x5a}, body)...)
}

// Ogg builds consecutive Ogg pages with one 10-byte body segment each.
func Ogg(pages int) []byte {
	var out []byte
	for i := 0; i < pages; i++ {
		page := make([]byte, oggPageHeaderSize)
		copy(page, "OggS")
		binary.LittleEndian.PutUint32(page[18:22], uint32(i)) //nolint:gosec // test sizes
		page[26] = 1
		page = append(page, 10)
		page = append(page, bytes.Repeat([]byte{byte(i + 1)}, 10)...)
		out = append(out, page...)
	}

	return out
}

// Textures returns n distinct PNGs of growing size.
func Textures(n int) [][]byte {
	textures := make([][]byte, n)
	for i := range textures {
		textures[i] = PNG(uint32(16+i), uint32(8+i), 10+i*3) //nolint:gosec // test sizes
	}

	return textures
}

// Audio returns one WAVE and one Ogg payload.
func Audio() [][]byte {
	return [][]byte{WAV(21), Ogg(2)}
}

// Archive lays out FORM with GEN8, STRG, TXTR, optional AUDO, and a trailing FONT section.
func Archive(textures [][]byte, audio [][]byte) []byte {
	out := []byte{'F', 'O', 'R', 'M', 0, 0, 0, 0}
	out = appendSection(out, "GEN8", bytes.Repeat([]byte{0x11}, 16))
	out = appendSection(out, "STRG", []byte("strings\x00"))

	out = appendSection(out, "TXTR", textureSection(uint32(len(out)+sectionHeaderSize), textures)) //nolint:gosec // test sizes
	if audio != nil {
		out = appendSection(out, "AUDO", audioSection(uint32(len(out)+sectionHeaderSize), audio)) //nolint:gosec // test sizes
	}

	out = appendSection(out, "FONT", []byte{1, 2, 3, 4})
	binary.LittleEndian.PutUint32(out[4:8], uint32(len(out)-8)) //nolint:gosec // test sizes
	return out
}

// appendSection appends tagged section with size header.
func appendSection(out []byte, tag string, payload []byte) []byte {
	out = append(out, tag...)
	out = binary.LittleEndian.AppendUint32(out, uint32(len(payload))) //nolint:gosec // test sizes
	return append(out, payload...)
}

// textureSection builds TXTR payload starting at absolute offset base.
func textureSection(base uint32, textures [][]byte) []byte {
	n := uint32(len(textures)) //nolint:gosec // test sizes
	infoStart := base + 4 + 4*n
	dataStart := align4(infoStart + textureInfoSize*n)

	offsets := make([]uint32, len(textures))
	cursor := dataStart
	for i, tex := range textures {
		offsets[i] = cursor
		cursor = align4(cursor + uint32(len(tex))) //nolint:gosec // test sizes
	}

	out := binary.LittleEndian.AppendUint32(nil, n)
	for i := range textures {
		out = binary.LittleEndian.AppendUint32(out, infoStart+textureInfoSize*uint32(i)) //nolint:gosec // test sizes
	}
	for i := range textures {
		out = binary.LittleEndian.AppendUint32(out, 0)
		out = binary.LittleEndian.AppendUint32(out, offsets[i])
	}

	for i, tex := range textures {
		out = padTo(out, offsets[i]-base)
		out = append(out, tex...)
	}

	return padTo(out, cursor-base)
}

// audioSection builds AUDO payload starting at absolute offset base.
func audioSection(base uint32, audio [][]byte) []byte {
	n := uint32(len(audio)) //nolint:gosec // test sizes
	cursor := base + 4 + 4*n

	offsets := make([]uint32, len(audio))
	for i, a := range audio {
		offsets[i] = cursor
		cursor = align4(cursor + 4 + uint32(len(a))) //nolint:gosec // test sizes
	}

	out := binary.LittleEndian.AppendUint32(nil, n)
	for _, off := range offsets {
		out = binary.LittleEndian.AppendUint32(out, off)
	}

	for i, a := range audio {
		out = padTo(out, offsets[i]-base)
		out = binary.LittleEndian.AppendUint32(out, uint32(len(a))) //nolint:gosec // test sizes
		out = append(out, a...)
	}

	return padTo(out, cursor-base)
}

func align4(v uint32) uint32 {
	return (v + 3) &^ 3
}

// padTo extends out with zero bytes up to length n.
func padTo(out []byte, n uint32) []byte {
	for uint32(len(out)) < n { //nolint:gosec // test sizes
		out = append(out, 0)
	}

	return out
}
