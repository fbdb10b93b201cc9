package jsonlutil

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

type failWriter struct{}

func (failWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestStartEncodesLines(t *testing.T) {
	var b strings.Builder
	in, done := Start[int](&b, 2, func(enc *json.Encoder, v int) error { return enc.Encode(v) }, func(error) bool { return false })
	for i := 0; i < 3; i++ {
		in <- i
	}
	close(in)
	if err := <-done; err != nil {
		t.Fatal(err)
	}
	if b.String() != "0\n1\n2\n" {
		t.Fatalf("got %q", b.String())
	}
}

func TestStartDrainsAfterError(t *testing.T) {
	boom := errors.New("boom")
	in, done := Start[int](failWriter{}, 1, func(*json.Encoder, int) error { return boom }, func(error) bool { return false })
	for i := 0; i < 100; i++ {
		in <- i // must not block
	}
	close(in)
	if err := <-done; !errors.Is(err, boom) {
		t.Fatalf("want boom, got %v", err)
	}
}

func TestStartSuppressesBrokenPipe(t *testing.T) {
	in, done := Start[int](failWriter{}, 1, func(enc *json.Encoder, v int) error { return enc.Encode(v) }, func(error) bool { return true })
	in <- 1
	close(in)
	if err := <-done; err != nil {
		t.Fatalf("broken pipe should be suppressed, got %v", err)
	}
}
