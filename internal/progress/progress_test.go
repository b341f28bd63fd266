package progress

import (
	"bytes"
	"testing"
)

func TestFactory_NonTerminalIsNop(t *testing.T) {
	var buf bytes.Buffer
	p := Factory(&buf, true)("Performing speech recognition: ", 3)
	p.Add(1)
	p.Add(2)
	p.Finish()
	if buf.Len() != 0 {
		t.Fatalf("expected no output for non-terminal writer, got %q", buf.String())
	}
}

func TestIsTerminal_Buffer(t *testing.T) {
	if IsTerminal(&bytes.Buffer{}) {
		t.Fatalf("a buffer is never a terminal")
	}
}
