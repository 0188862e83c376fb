package corefmt

import (
	"bytes"
	"testing"
)

func TestSnapshotEncodings(t *testing.T) {
	raw := []byte{0x00, 0xff, 0x10, 0x7e}
	b, err := DecodeBase64URL(EncodeBase64URL(raw))
	if err != nil || !bytes.Equal(b, raw) {
		t.Fatalf("base64url round trip: %v %v", b, err)
	}
	h, err := DecodeHex(EncodeHex(raw))
	if err != nil || !bytes.Equal(h, raw) {
		t.Fatalf("hex round trip: %v %v", h, err)
	}
	if _, err := DecodeBase64URL("***"); err == nil {
		t.Fatalf("expected decode error")
	}
	cp := EncodeBlob(raw)
	cp[0] = 1
	if raw[0] != 0 || EncodeBlob(nil) != nil {
		t.Fatalf("EncodeBlob must copy")
	}
}
