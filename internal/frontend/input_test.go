package frontend

import (
	"bytes"
	"testing"
)

func TestDecodePlainBytesAreRaw(t *testing.T) {
	events := Decode([]byte("abc"))
	if len(events) != 1 || events[0].Kind != EventRaw || string(events[0].Raw) != "abc" {
		t.Fatalf("Decode(%q) = %+v", "abc", events)
	}
}

func TestDecodeAltKey(t *testing.T) {
	events := Decode([]byte{0x1B, 'x'})
	if len(events) != 1 || events[0].Kind != EventAltKey || events[0].AltKey != 'x' {
		t.Fatalf("Decode(ESC x) = %+v", events)
	}
}

func TestDecodePageUpDown(t *testing.T) {
	events := Decode([]byte("\x1B[5~\x1B[6~"))
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[0].Kind != EventScrollKey || events[0].ScrollKey != ScrollPageUp {
		t.Errorf("event 0 = %+v, want ScrollPageUp", events[0])
	}
	if events[1].Kind != EventScrollKey || events[1].ScrollKey != ScrollPageDown {
		t.Errorf("event 1 = %+v, want ScrollPageDown", events[1])
	}
}

func TestDecodeShiftPageUpDown(t *testing.T) {
	events := Decode([]byte("\x1B[5;2~\x1B[6;2~"))
	if len(events) != 2 ||
		events[0].ScrollKey != ScrollShiftPageUp ||
		events[1].ScrollKey != ScrollShiftPageDown {
		t.Fatalf("Decode(shift page up/down) = %+v", events)
	}
}

func TestDecodeHomeEnd(t *testing.T) {
	events := Decode([]byte("\x1B[H\x1B[F"))
	if len(events) != 2 || events[0].ScrollKey != ScrollHome || events[1].ScrollKey != ScrollEnd {
		t.Fatalf("Decode(home/end) = %+v", events)
	}
}

func TestDecodeShiftUpDown(t *testing.T) {
	events := Decode([]byte("\x1B[1;2A\x1B[1;2B"))
	if len(events) != 2 || events[0].ScrollKey != ScrollShiftUp || events[1].ScrollKey != ScrollShiftDown {
		t.Fatalf("Decode(shift up/down) = %+v", events)
	}
}

func TestDecodeSGRMouseWheel(t *testing.T) {
	events := Decode([]byte("\x1B[<64;10;5M\x1B[<65;10;5M"))
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2: %+v", len(events), events)
	}
	if events[0].Kind != EventMouseScroll || events[0].Lines != -mouseScrollStep {
		t.Errorf("event 0 = %+v, want wheel-up", events[0])
	}
	if events[1].Kind != EventMouseScroll || events[1].Lines != mouseScrollStep {
		t.Errorf("event 1 = %+v, want wheel-down", events[1])
	}
}

func TestDecodeSGRMouseClickIsUnrecognisedAndForwarded(t *testing.T) {
	events := Decode([]byte("\x1B[<0;10;5M"))
	if len(events) != 1 || events[0].Kind != EventRaw {
		t.Fatalf("Decode(left click) = %+v, want raw forward", events)
	}
}

func TestDecodeBareEscAtEndIsForwardedRaw(t *testing.T) {
	events := Decode([]byte{'a', 0x1B})
	if len(events) != 1 || events[0].Kind != EventRaw {
		t.Fatalf("Decode(a ESC) = %+v", events)
	}
	if !bytes.Equal(events[0].Raw, []byte{'a', 0x1B}) {
		t.Errorf("Raw = %q, want %q", events[0].Raw, []byte{'a', 0x1B})
	}
}

func TestDecodeMixedRawAndEscapeSequences(t *testing.T) {
	events := Decode([]byte("hi\x1B[5~bye"))
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3: %+v", len(events), events)
	}
	if events[0].Kind != EventRaw || string(events[0].Raw) != "hi" {
		t.Errorf("event 0 = %+v", events[0])
	}
	if events[1].Kind != EventScrollKey || events[1].ScrollKey != ScrollPageUp {
		t.Errorf("event 1 = %+v", events[1])
	}
	if events[2].Kind != EventRaw || string(events[2].Raw) != "bye" {
		t.Errorf("event 2 = %+v", events[2])
	}
}
