package variants

import (
	"bytes"
	"image"
	"image/jpeg"
	"testing"

	xwebp "golang.org/x/image/webp"

	"github.com/fpang/instagram-image-sync/internal/catalog"
)

// testJPEG encodes a solid-color image of the given dimensions.
func testJPEG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("encode test image: %v", err)
	}
	return buf.Bytes()
}

func TestDecode(t *testing.T) {
	tc := StdTranscoder{}
	img, err := tc.Decode(testJPEG(t, 64, 32))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if img.Bounds().Dx() != 64 || img.Bounds().Dy() != 32 {
		t.Errorf("unexpected bounds: %v", img.Bounds())
	}
}

func TestDecode_Garbage(t *testing.T) {
	tc := StdTranscoder{}
	if _, err := tc.Decode([]byte("not an image")); err == nil {
		t.Error("expected error for undecodable input")
	}
}

func TestTranscode_JPEGPreservesAspectRatio(t *testing.T) {
	tc := StdTranscoder{}
	src, _ := tc.Decode(testJPEG(t, 64, 32))

	data, err := tc.Transcode(src, 320, catalog.FormatJPG)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("output not decodable: %v", err)
	}
	if out.Bounds().Dx() != 320 {
		t.Errorf("expected width 320, got %d", out.Bounds().Dx())
	}
	// 2:1 source stays 2:1 even when upscaling.
	if out.Bounds().Dy() != 160 {
		t.Errorf("expected height 160, got %d", out.Bounds().Dy())
	}
}

func TestTranscode_SameWidthStillEncodes(t *testing.T) {
	tc := StdTranscoder{}
	src, _ := tc.Decode(testJPEG(t, 320, 200))

	data, err := tc.Transcode(src, 320, catalog.FormatJPG)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("output not decodable: %v", err)
	}
	if out.Bounds().Dx() != 320 || out.Bounds().Dy() != 200 {
		t.Errorf("unexpected bounds: %v", out.Bounds())
	}
}

func TestTranscode_WebP(t *testing.T) {
	tc := StdTranscoder{}
	src, _ := tc.Decode(testJPEG(t, 100, 50))

	data, err := tc.Transcode(src, 480, catalog.FormatWebP)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out, err := xwebp.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("webp output not decodable: %v", err)
	}
	if out.Bounds().Dx() != 480 || out.Bounds().Dy() != 240 {
		t.Errorf("unexpected bounds: %v", out.Bounds())
	}
}

func TestTranscode_AVIF(t *testing.T) {
	tc := StdTranscoder{}
	src, _ := tc.Decode(testJPEG(t, 100, 50))

	data, err := tc.Transcode(src, 320, catalog.FormatAVIF)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(data) == 0 {
		t.Error("avif encoding produced no bytes")
	}
}

func TestTranscode_UnknownFormat(t *testing.T) {
	tc := StdTranscoder{}
	src, _ := tc.Decode(testJPEG(t, 10, 10))

	if _, err := tc.Transcode(src, 320, catalog.Format("bmp")); err == nil {
		t.Error("expected error for unknown format")
	}
}
