// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/gmarc

package gmarc

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

const (
	// ihdrSize is IHDR chunk size including length, type, payload, and CRC.
	ihdrSize = 25
	// riffHeaderSize is RIFF magic + size + form type.
	riffHeaderSize = 12
	// oggPageHeaderSize is fixed part of one Ogg page header.
	oggPageHeaderSize = 27
)

// PNGInfo is header metadata read from a PNG stream without decoding pixels.
type PNGInfo struct {
	// Size is exact stream length from signature through IEND chunk.
	Size int64 `json:"size" yaml:"size"`
	// Width is image width in pixels.
	Width uint32 `json:"width" yaml:"width"`
	// Height is image height in pixels.
	Height uint32 `json:"height" yaml:"height"`
	// BitDepth is bits per sample.
	BitDepth uint8 `json:"bit_depth" yaml:"bit_depth"`
	// ColorType is PNG color type.
	ColorType uint8 `json:"color_type" yaml:"color_type"`
	// Interlace is interlace method.
	Interlace uint8 `json:"interlace" yaml:"interlace"`
}

// MediaInfo describes a payload detected from its leading bytes.
type MediaInfo struct {
	// Kind is detected payload kind.
	Kind Kind `json:"kind" yaml:"kind"`
	// Details is a short human readable description (dimensions, RIFF form type).
	Details string `json:"details,omitempty" yaml:"details,omitempty"`
	// Width is image width for PNG payloads.
	Width uint32 `json:"width,omitempty" yaml:"width,omitempty"`
	// Height is image height for PNG payloads.
	Height uint32 `json:"height,omitempty" yaml:"height,omitempty"`
}

// ReadPNGInfo reads PNG signature and IHDR, then walks chunk headers through IEND
// to compute exact stream length. Chunk payloads are skipped with Seek.
func ReadPNGInfo(r io.ReadSeeker) (PNGInfo, error) {
	var info PNGInfo

	start, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return info, fmt.Errorf("%w: seek: %w", ErrIO, err)
	}

	var head [pngSignatureSize + ihdrSize]byte
	n, err := io.ReadFull(r, head[:])
	if n >= pngSignatureSize && string(head[:pngSignatureSize]) != pngSignature {
		return info, ErrNotPNG
	}
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			if n < pngSignatureSize {
				return info, ErrNotPNG
			}

			return info, ErrTruncatedImage
		}

		return info, fmt.Errorf("%w: read PNG header: %w", ErrIO, err)
	}

	info, err = parseIHDR(head[pngSignatureSize:])
	if err != nil {
		return info, err
	}

	size := int64(pngSignatureSize + ihdrSize)
	var chunk [8]byte
	for {
		if _, err := io.ReadFull(r, chunk[:]); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return info, fmt.Errorf("%w: missing IEND chunk", ErrTruncatedImage)
			}

			return info, fmt.Errorf("%w: read PNG chunk: %w", ErrIO, err)
		}

		length := binary.BigEndian.Uint32(chunk[0:4])
		if length > maxPNGChunkSize {
			return info, fmt.Errorf("%w: chunk length %d", ErrTruncatedImage, length)
		}
		if !isASCIIAlphaString(chunk[4:8]) {
			return info, fmt.Errorf("%w: unexpected chunk type %q", ErrInvalidImageHeader, chunk[4:8])
		}

		size += int64(length) + pngChunkOverhead
		if _, err := r.Seek(int64(length)+4, io.SeekCurrent); err != nil {
			return info, fmt.Errorf("%w: seek PNG chunk: %w", ErrIO, err)
		}

		if string(chunk[4:8]) == "IEND" {
			break
		}
	}

	end, err := r.Seek(0, io.SeekEnd)
	if err != nil {
		return info, fmt.Errorf("%w: seek: %w", ErrIO, err)
	}
	if start+size > end {
		return info, fmt.Errorf("%w: stream ends before IEND chunk", ErrTruncatedImage)
	}

	info.Size = size
	return info, nil
}

// ReadPNGInfoFile reads PNG header metadata from file path.
func ReadPNGInfoFile(path string) (PNGInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return PNGInfo{}, fmt.Errorf("%w: open image: %w", ErrIO, err)
	}
	defer func() { _ = f.Close() }()

	info, err := ReadPNGInfo(f)
	if err != nil {
		return PNGInfo{}, fmt.Errorf("%s: %w", path, err)
	}

	return info, nil
}

// ReadPNGInfoBytes reads PNG header metadata from in-memory data.
func ReadPNGInfoBytes(data []byte) (PNGInfo, error) {
	return ReadPNGInfo(bytes.NewReader(data))
}

// parseIHDR validates IHDR chunk and returns dimension fields.
func parseIHDR(hdr []byte) (PNGInfo, error) {
	var info PNGInfo

	if binary.BigEndian.Uint32(hdr[0:4]) != 13 || string(hdr[4:8]) != "IHDR" {
		return info, fmt.Errorf("%w: expected IHDR chunk but got %q", ErrInvalidImageHeader, hdr[4:8])
	}

	info.Width = binary.BigEndian.Uint32(hdr[8:12])
	info.Height = binary.BigEndian.Uint32(hdr[12:16])
	info.BitDepth = hdr[16]
	info.ColorType = hdr[17]
	compression := hdr[18]
	filter := hdr[19]
	info.Interlace = hdr[20]

	switch info.BitDepth {
	case 1, 2, 4, 8, 16:
	default:
		return info, fmt.Errorf("%w: unexpected bit depth %d", ErrInvalidImageHeader, info.BitDepth)
	}

	switch info.ColorType {
	case 0, 2, 3, 4, 6:
	default:
		return info, fmt.Errorf("%w: unexpected color type %d", ErrInvalidImageHeader, info.ColorType)
	}

	if compression != 0 || filter != 0 {
		return info, fmt.Errorf("%w: unexpected compression/filter method", ErrInvalidImageHeader)
	}

	if info.Interlace > 1 {
		return info, fmt.Errorf("%w: unexpected interlace method %d", ErrInvalidImageHeader, info.Interlace)
	}

	return info, nil
}

// pngLength returns PNG stream length at the start of data.
func pngLength(data []byte) (uint32, error) {
	info, err := ReadPNGInfoBytes(data)
	if err != nil {
		return 0, err
	}

	return uint32(info.Size), nil //nolint:gosec // bounded by len(data)
}

// DetectMedia classifies a payload as PNG, RIFF/WAVE, or Ogg from its leading bytes.
func DetectMedia(data []byte) MediaInfo {
	if info, err := ReadPNGInfoBytes(data); err == nil {
		return MediaInfo{
			Kind:    KindPNG,
			Details: fmt.Sprintf("%dx%d", info.Width, info.Height),
			Width:   info.Width,
			Height:  info.Height,
		}
	}

	if form, ok := riffFormType(data); ok {
		if form == "WAVE" {
			return MediaInfo{Kind: KindWAV, Details: form}
		}

		return MediaInfo{Kind: KindRaw, Details: "RIFF " + form}
	}

	if oggLength(data) > 0 {
		return MediaInfo{Kind: KindOgg}
	}

	return MediaInfo{Kind: KindRaw}
}

// riffFormType returns RIFF form type when data starts with a valid RIFF header.
func riffFormType(data []byte) (string, bool) {
	if len(data) < riffHeaderSize || string(data[0:4]) != "RIFF" {
		return "", false
	}

	form := data[8:12]
	for _, ch := range form {
		if !isASCIIAlpha(ch) && !(ch >= '0' && ch <= '9') && ch != ' ' {
			return "", false
		}
	}

	return string(form), true
}

// oggLength walks consecutive Ogg pages and returns their total length, or 0 when data is not Ogg.
func oggLength(data []byte) int {
	total := 0
	lastPage := int64(-1)

	for {
		rest := data[total:]
		if len(rest) < oggPageHeaderSize || string(rest[0:4]) != "OggS" {
			return total
		}

		page := int64(binary.LittleEndian.Uint32(rest[18:22]))
		if page <= lastPage {
			return total
		}
		lastPage = page

		segments := int(rest[26])
		if len(rest) < oggPageHeaderSize+segments {
			return total
		}

		bodySize := 0
		for _, seg := range rest[oggPageHeaderSize : oggPageHeaderSize+segments] {
			bodySize += int(seg)
		}

		pageSize := oggPageHeaderSize + segments + bodySize
		if len(rest) < pageSize {
			return total
		}

		total += pageSize
	}
}

// isASCIIAlphaString reports whether every byte is an ASCII latin letter.
func isASCIIAlphaString(b []byte) bool {
	for _, ch := range b {
		if !isASCIIAlpha(ch) {
			return false
		}
	}

	return len(b) > 0
}

// isASCIIAlpha reports whether byte is ASCII latin letter.
func isASCIIAlpha(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
