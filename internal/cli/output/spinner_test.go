package output

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestSpinner(t *testing.T) {
	tests := []struct {
		name   string
		finish func(*Spinner)
		want   []string
	}{
		{"stop", func(s *Spinner) { s.Stop() }, []string{"Uploading receipt", "\r\033[K"}},
		{"success", func(s *Spinner) { s.Success("Receipt uploaded") }, []string{"✓ Receipt uploaded\n"}},
		{"fail", func(s *Spinner) { s.Fail("Upload failed") }, []string{"✗ Upload failed\n"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			s := NewSpinner(&buf, "Uploading receipt")
			s.Start()
			time.Sleep(2 * spinnerInterval)
			tt.finish(s)

			// The animation goroutine has exited; buf is no longer shared.
			out := buf.String()
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("output %q missing %q", out, w)
				}
			}
		})
	}
}

func TestSpinner_StopWithoutStart(t *testing.T) {
	var buf bytes.Buffer
	s := NewSpinner(&buf, "Loading")
	s.Stop()
	s.Stop()

	if buf.String() != "\r\033[K\r\033[K" {
		t.Errorf("output = %q", buf.String())
	}
}

func TestSpinner_FinishTwice(t *testing.T) {
	var buf bytes.Buffer
	s := NewSpinner(&buf, "Loading")
	s.Start()
	s.Fail("first")
	s.Success("second")

	out := buf.String()
	if !strings.Contains(out, "first") || !strings.Contains(out, "second") {
		t.Errorf("output = %q", out)
	}
}
