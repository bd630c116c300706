package ptymgr

import (
	"bufio"
	"strings"
	"testing"
	"time"
)

func TestSplitShellCommand(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"/bin/bash", []string{"/bin/bash"}},
		{"/bin/bash --login", []string{"/bin/bash", "--login"}},
		{`/bin/sh -c "echo hi"`, []string{"/bin/sh", "-c", "echo hi"}},
		{"", nil},
	}
	for _, c := range cases {
		got := SplitShellCommand(c.in)
		if len(got) != len(c.want) {
			t.Errorf("SplitShellCommand(%q) = %v, want %v", c.in, got, c.want)
			continue
		}
		for i := range got {
			if got[i] != c.want[i] {
				t.Errorf("SplitShellCommand(%q) = %v, want %v", c.in, got, c.want)
				break
			}
		}
	}
}

func TestSplitShellCommandFallsBackOnUnlexable(t *testing.T) {
	got := SplitShellCommand(`unterminated "quote`)
	if len(got) != 1 || got[0] != `unterminated "quote` {
		t.Errorf("SplitShellCommand(unlexable) = %v, want single-element fallback", got)
	}
}

func TestSpawnAndClose(t *testing.T) {
	h, err := Spawn("/bin/echo hello-ptymgr", "", 80, 24)
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	defer h.Close()

	if h.Pid <= 0 {
		t.Errorf("Pid = %d, want > 0", h.Pid)
	}

	scanner := bufio.NewScanner(h)
	found := false
	for scanner.Scan() {
		if strings.Contains(scanner.Text(), "hello-ptymgr") {
			found = true
			break
		}
	}
	if !found {
		t.Error("expected spawned echo's output to appear on the PTY master")
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, exited := h.PollStatus(); exited {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Error("child did not exit within timeout")
}

func TestSpawnRespectsCwd(t *testing.T) {
	dir := t.TempDir()
	h, err := Spawn("/bin/pwd", dir, 80, 24)
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	defer h.Close()

	scanner := bufio.NewScanner(h)
	if !scanner.Scan() {
		t.Fatal("expected pwd output")
	}
	if got := strings.TrimSpace(scanner.Text()); got != dir {
		t.Errorf("pwd output = %q, want %q", got, dir)
	}
}
