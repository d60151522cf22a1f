package components

// List is a cursor over n rows with a scrolling window of Height rows. It
// holds no row data; callers index their own slices.
type List struct {
	Height int
	n      int
	cursor int
	top    int
}

// NewList returns an empty list showing height rows at a time.
func NewList(height int) *List {
	return &List{Height: height}
}

// Reset starts over with n rows and the cursor on the first one.
func (l *List) Reset(n int) {
	l.n = max(n, 0)
	l.cursor, l.top = 0, 0
}

// Resize changes the row count and keeps the cursor where it was, pulled
// back onto the last row if that one is gone.
func (l *List) Resize(n int) {
	l.n = max(n, 0)
	l.moveTo(l.cursor)
}

// Len is the row count.
func (l *List) Len() int { return l.n }

// Selected is the cursor row. It is 0 on an empty list.
func (l *List) Selected() int { return l.cursor }

// IsSelected reports whether row i is under the cursor.
func (l *List) IsSelected(i int) bool { return l.n > 0 && i == l.cursor }

func (l *List) Down()   { l.moveTo(l.cursor + 1) }
func (l *List) Up()     { l.moveTo(l.cursor - 1) }
func (l *List) Top()    { l.moveTo(0) }
func (l *List) Bottom() { l.moveTo(l.n - 1) }

// Window is the half-open row range [start, end) currently on screen.
func (l *List) Window() (start, end int) {
	if l.Height <= 0 {
		return 0, l.n
	}
	return l.top, min(l.top+l.Height, l.n)
}

func (l *List) moveTo(i int) {
	l.cursor = max(min(i, l.n-1), 0)
	if l.Height <= 0 {
		l.top = 0
		return
	}
	if l.cursor < l.top {
		l.top = l.cursor
	}
	if l.cursor >= l.top+l.Height {
		l.top = l.cursor - l.Height + 1
	}
	l.top = max(min(l.top, l.n-l.Height), 0)
}
