package hash

import "testing"

func TestHashAndCheck(t *testing.T) {
	h, err := HashPassword("s3cret-pass")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if h == "s3cret-pass" {
		t.Fatal("hash must not equal the plain password")
	}
	if !CheckPasswordHash("s3cret-pass", h) {
		t.Fatal("expected password to match its hash")
	}
	if CheckPasswordHash("wrong", h) {
		t.Fatal("wrong password matched")
	}
}
