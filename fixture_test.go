package gmarc

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/woozymasta/gmarc/internal/fixture"
)

// makeTestPNG builds a structurally valid PNG with an IDAT chunk of extra bytes.
func makeTestPNG(width uint32, height uint32, extra int) []byte {
	return fixture.PNG(width, height, extra)
}

// makeTestWAV builds minimal RIFF WAVE payload.
func makeTestWAV(body int) []byte {
	return fixture.WAV(body)
}

// makeTestOgg builds consecutive Ogg pages with one body segment each.
func makeTestOgg(pages int) []byte {
	return fixture.Ogg(pages)
}

// testTextures returns n distinct PNGs of growing size.
func testTextures(n int) [][]byte {
	return fixture.Textures(n)
}

// testAudio returns one WAVE and one Ogg payload.
func testAudio() [][]byte {
	return fixture.Audio()
}

// buildTestArchive lays out FORM with GEN8, STRG, TXTR, optional AUDO, and a trailing FONT section.
func buildTestArchive(textures [][]byte, audio [][]byte) []byte {
	return fixture.Archive(textures, audio)
}

// writeTestArchive writes data into a temp dir under name and returns its path.
func writeTestArchive(t testing.TB, name string, data []byte) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write archive: %v", err)
	}

	return path
}

// readU32 reads little-endian u32 at offset.
func readU32(data []byte, at uint32) uint32 {
	return binary.LittleEndian.Uint32(data[at : at+4])
}
