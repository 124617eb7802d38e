package common

import (
	"testing"

	"github.com/sirupsen/logrus"
)

type recordingTB struct {
	testing.TB
	lines []string
}

func (r *recordingTB) Log(args ...interface{}) {
	for _, a := range args {
		r.lines = append(r.lines, a.(string))
	}
}

func TestNewTestEntry(t *testing.T) {
	rec := &recordingTB{TB: t}

	entry := NewTestEntry(rec, logrus.InfoLevel)
	entry.Debug("hidden")
	entry.Info("shown")

	if len(rec.lines) != 1 {
		t.Fatalf("expected one line, got %v", rec.lines)
	}
	if rec.lines[0] != `level=info msg=shown prefix=test` {
		t.Fatalf("unexpected line %q", rec.lines[0])
	}
}
