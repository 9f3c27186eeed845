package gmail

import (
	"encoding/base64"
	"testing"
	"time"
)

func TestMailDate(t *testing.T) {
	cases := []string{
		"Mon, 06 Jan 2025 08:00:00 -0300",
		"Mon, 6 Jan 2025 08:00:00 -0300",
		"Mon, 06 Jan 2025 08:00:00 -0300 (BRT)",
	}
	want := time.Date(2025, 1, 6, 11, 0, 0, 0, time.UTC)
	for _, v := range cases {
		got, err := mailDate(v)
		if err != nil {
			t.Fatalf("%q: %v", v, err)
		}
		if !got.UTC().Equal(want) {
			t.Fatalf("%q: got %v", v, got.UTC())
		}
	}
	if _, err := mailDate("ontem à tarde"); err == nil {
		t.Fatal("expected error")
	}
}

func TestDecodeBase64URL(t *testing.T) {
	raw := []byte("Subject: Cardápio\r\n\r\n?>?>")
	for _, enc := range []*base64.Encoding{base64.RawURLEncoding, base64.URLEncoding} {
		got, err := decodeBase64URL(enc.EncodeToString(raw))
		if err != nil {
			t.Fatal(err)
		}
		if string(got) != string(raw) {
			t.Fatalf("got %q", got)
		}
	}
	if _, err := decodeBase64URL("***"); err == nil {
		t.Fatal("expected error")
	}
}
