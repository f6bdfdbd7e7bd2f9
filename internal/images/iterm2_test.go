package images

import (
	"encoding/base64"
	"testing"
)

func inlineBody(args, data string) string {
	return "File=" + args + ":" + base64.StdEncoding.EncodeToString([]byte(data))
}

func TestParseInlineBasic(t *testing.T) {
	img, err := ParseInline(inlineBody("inline=1", "PNGDATA"))
	if err != nil {
		t.Fatalf("ParseInline: %v", err)
	}
	if string(img.Data) != "PNGDATA" {
		t.Errorf("data = %q", img.Data)
	}
	if !img.Inline {
		t.Errorf("inline should be set")
	}
	if !img.PreserveAspectRatio {
		t.Errorf("preserveAspectRatio should default to true")
	}
}

func TestParseInlineName(t *testing.T) {
	name := base64.StdEncoding.EncodeToString([]byte("cat.png"))
	img, err := ParseInline(inlineBody("name="+name+";inline=1", "x"))
	if err != nil {
		t.Fatalf("ParseInline: %v", err)
	}
	if img.Filename != "cat.png" {
		t.Errorf("filename = %q, want cat.png", img.Filename)
	}
}

func TestParseInlineSizes(t *testing.T) {
	cases := []struct {
		in   string
		mode SizeMode
		val  float64
	}{
		{"auto", SizeAuto, 0},
		{"AUTO", SizeAuto, 0},
		{"80", SizeCells, 80},
		{"640px", SizePixels, 640},
		{"50%", SizePercent, 50},
		{"garbage", SizeAuto, 0},
		{"-3", SizeAuto, 0},
	}
	for _, tc := range cases {
		got := parseSize(tc.in)
		if got.Mode != tc.mode || got.Value != tc.val {
			t.Errorf("parseSize(%q) = %+v, want mode=%d val=%v", tc.in, got, tc.mode, tc.val)
		}
	}
}

func TestParseInlineFlags(t *testing.T) {
	img, err := ParseInline(inlineBody("inline=1;preserveAspectRatio=0;doNotMoveCursor=1", "x"))
	if err != nil {
		t.Fatalf("ParseInline: %v", err)
	}
	if img.PreserveAspectRatio {
		t.Errorf("preserveAspectRatio should be off")
	}
	if !img.DoNotMoveCursor {
		t.Errorf("doNotMoveCursor should be on")
	}
}

func TestParseInlineErrors(t *testing.T) {
	cases := []string{
		"NotAFile=1:QUJD",       // missing File= prefix
		"File=inline=1",         // no ':' separator
		"File=inline=1:!!!bad",  // invalid base64
		"File=inline=1:",        // empty data
	}
	for _, in := range cases {
		if _, err := ParseInline(in); err == nil {
			t.Errorf("ParseInline(%q) should fail", in)
		}
	}
}

func TestHandleInlinePlacesAtCursor(t *testing.T) {
	h := NewHandler()
	if err := h.HandleInline(inlineBody("inline=1;width=10;height=4", "IMAGE")); err != nil {
		t.Fatalf("HandleInline: %v", err)
	}
	placements := h.Registry().Placements()
	if len(placements) != 1 {
		t.Fatalf("placements = %d, want 1", len(placements))
	}
	p := placements[0]
	if p.Col != -1 || p.Row != -1 {
		t.Errorf("placement at (%d,%d), want cursor (-1,-1)", p.Col, p.Row)
	}
	if p.Cols != 10 || p.Rows != 4 {
		t.Errorf("placement cells = %dx%d, want 10x4", p.Cols, p.Rows)
	}
}

func TestHandleInlineDownloadOnly(t *testing.T) {
	h := NewHandler()
	if err := h.HandleInline(inlineBody("inline=0", "FILE")); err != nil {
		t.Fatalf("HandleInline: %v", err)
	}
	if h.Registry().Len() != 0 {
		t.Errorf("download-only transfer should not be stored")
	}
}
