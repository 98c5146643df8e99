package pptx

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"strconv"
	"strings"
	"testing"
)

func TestContentTypesXMLIncludesEverySlide(t *testing.T) {
	got := contentTypesXML(3)
	for i := 1; i <= 3; i++ {
		want := "/ppt/slides/slide" + strconv.Itoa(i) + ".xml"
		if !strings.Contains(got, want) {
			t.Errorf("contentTypesXML(3) missing override for %s", want)
		}
	}
}

func TestSlideXMLEmbedsDimensions(t *testing.T) {
	got := slideXML(12192000, 6858000)
	if !strings.Contains(got, `cx="12192000" cy="6858000"`) {
		t.Errorf("slideXML did not embed EMU dimensions: %s", got)
	}
}

func TestEscapeXML(t *testing.T) {
	got := escapeXML(`<hi & "bye">`)
	if strings.Contains(got, "<") || strings.Contains(got, ">") {
		t.Errorf("escapeXML left raw angle brackets: %q", got)
	}
}

func encodedPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 0, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestNormalizeSlideImagePassesThroughMatchingSize(t *testing.T) {
	src := encodedPNG(t, 100, 80)
	out, w, h, err := normalizeSlideImage(src, 100, 80)
	if err != nil {
		t.Fatalf("normalizeSlideImage() error = %v", err)
	}
	if w != 100 || h != 80 {
		t.Fatalf("normalizeSlideImage() dims = %dx%d; want 100x80", w, h)
	}
	if !bytes.Equal(out, src) {
		t.Error("normalizeSlideImage() re-encoded an already-matching image instead of passing it through")
	}
}

func TestNormalizeSlideImageResizesMismatch(t *testing.T) {
	src := encodedPNG(t, 100, 80)
	out, w, h, err := normalizeSlideImage(src, 50, 40)
	if err != nil {
		t.Fatalf("normalizeSlideImage() error = %v", err)
	}
	if w != 50 || h != 40 {
		t.Fatalf("normalizeSlideImage() dims = %dx%d; want 50x40", w, h)
	}
	gotW, gotH, err := pngDimensions(out)
	if err != nil {
		t.Fatalf("pngDimensions() error = %v", err)
	}
	if gotW != 50 || gotH != 40 {
		t.Fatalf("resized png dims = %dx%d; want 50x40", gotW, gotH)
	}
}
