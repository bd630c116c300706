package overlay

// Style carries the fg/bold attributes a notification renders with;
// colors are opaque indices/names the status bar package's termenv
// styling resolves, per spec.md §2's "content sources treated as opaque
// strings".
type Style struct {
	Fg   string
	Bg   string
	Bold bool
}

// Position names where on screen a notification draws.
type Position int

const (
	PositionTopRight Position = iota
	PositionTopLeft
	PositionBottomRight
	PositionBottomLeft
)

// Notification is one queued or active transient message, per spec.md
// §4.8's `{text, expires-at-ms, position, style}` record.
type Notification struct {
	Text        string
	ExpiresAtMS int64
	Position    Position
	Style       Style
}

// NotifyQueue holds at most one active notification plus a backlog, per
// spec.md §4.8 ("At most one active notification; on expiry, pop from
// queue and swap in"). Grounded on the teacher's RenderBar/
// renderSelectHint draw-after-bar convention (separator -> bar -> hint,
// last writer wins the cell), applied here to queue-popping instead of a
// static hint flag.
type NotifyQueue struct {
	active *Notification
	queue  []*Notification
}

// NewQueue creates an empty notification queue.
func NewQueue() *NotifyQueue {
	return &NotifyQueue{}
}

// Push enqueues n. If nothing is currently active, n becomes active
// immediately.
func (q *NotifyQueue) Push(n *Notification) {
	if q.active == nil {
		q.active = n
		return
	}
	q.queue = append(q.queue, n)
}

// Active returns the currently displayed notification, or nil.
func (q *NotifyQueue) Active() *Notification {
	return q.active
}

// Update advances the queue at nowMS: if the active notification expired,
// it is popped and replaced by the next queued one (or nil). Returns true
// iff an active notification expired this tick ("needs-refresh" per
// spec.md §4.8).
func (q *NotifyQueue) Update(nowMS int64) bool {
	if q.active == nil || nowMS < q.active.ExpiresAtMS {
		return false
	}
	if len(q.queue) > 0 {
		q.active, q.queue = q.queue[0], q.queue[1:]
	} else {
		q.active = nil
	}
	return true
}

// Render draws a padded rectangle for n at its configured position inside
// a screen sized areaW x areaH, writing into the renderer via setCell. The
// overlay draws after the status bar but before the cursor-positioning
// trailer (spec.md §4.8), so callers must invoke this after status-bar
// rendering and before positioning the cursor.
func Render(n *Notification, areaW, areaH int, setCell func(x, y int, r rune)) {
	if n == nil {
		return
	}
	text := []rune(" " + n.Text + " ")
	w := len(text)
	if w > areaW {
		w = areaW
		text = text[:w]
	}

	x, y := 0, 0
	switch n.Position {
	case PositionTopRight:
		x, y = areaW-w, 0
	case PositionTopLeft:
		x, y = 0, 0
	case PositionBottomRight:
		x, y = areaW-w, areaH-1
	case PositionBottomLeft:
		x, y = 0, areaH-1
	}
	if x < 0 {
		x = 0
	}

	for i, r := range text {
		setCell(x+i, y, r)
	}
}
