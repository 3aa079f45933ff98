package gallery

import "strings"

// Key is a keyboard key the lightbox reacts to.
type Key string

const (
	KeyLeft   Key = "ArrowLeft"
	KeyRight  Key = "ArrowRight"
	KeyEscape Key = "Escape"
)

// ParseKey accepts browser key names and a few terminal spellings.
func ParseKey(s string) (Key, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "arrowleft", "left", "h", "p", "prev":
		return KeyLeft, true
	case "arrowright", "right", "l", "n", "next":
		return KeyRight, true
	case "escape", "esc", "q", "close":
		return KeyEscape, true
	}
	return "", false
}

// Lightbox is Closed or Open(index) over a list of length N supplied by the
// caller on every transition.
type Lightbox struct {
	open  bool
	index int
}

func (l *Lightbox) IsOpen() bool { return l.open }

// Index is only meaningful while open.
func (l *Lightbox) Index() int { return l.index }

// Open moves to Open(i). Out-of-range indexes leave the lightbox closed.
func (l *Lightbox) Open(i, n int) bool {
	if i < 0 || i >= n {
		l.Close()
		return false
	}
	l.open = true
	l.index = i
	return true
}

// Next wraps to 0 after the last item. With n == 0 the lightbox closes.
func (l *Lightbox) Next(n int) {
	if !l.open {
		return
	}
	if n <= 0 {
		l.Close()
		return
	}
	l.index = (l.index + 1) % n
}

// Prev wraps to n-1 before the first item. With n == 0 the lightbox closes.
func (l *Lightbox) Prev(n int) {
	if !l.open {
		return
	}
	if n <= 0 {
		l.Close()
		return
	}
	l.index = (l.index - 1 + n) % n
}

func (l *Lightbox) Close() {
	l.open = false
	l.index = 0
}

// HandleKey applies a key press. Keys are ignored while closed; the return
// value reports whether the key was consumed.
func (l *Lightbox) HandleKey(k Key, n int) bool {
	if !l.open {
		return false
	}
	switch k {
	case KeyLeft:
		l.Prev(n)
	case KeyRight:
		l.Next(n)
	case KeyEscape:
		l.Close()
	default:
		return false
	}
	return true
}
