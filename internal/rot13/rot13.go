package rot13

import "io"

// Rotate returns the ROT13 image of a single byte
func Rotate(b byte) byte {
	switch {
	case b >= 'a' && b <= 'z':
		return 'a' + (b-'a'+13)%26
	case b >= 'A' && b <= 'Z':
		return 'A' + (b-'A'+13)%26
	default:
		return b
	}
}

// Transform writes the ROT13 of src into dst and returns the number of bytes written,
// min(len(dst), len(src)). dst and src may be the same slice.
func Transform(dst, src []byte) int {
	n := len(src)
	if len(dst) < n {
		n = len(dst)
	}
	for i := 0; i < n; i++ {
		dst[i] = Rotate(src[i])
	}
	return n
}

// Apply returns a newly allocated ROT13 copy of src
func Apply(src []byte) []byte {
	dst := make([]byte, len(src))
	Transform(dst, src)
	return dst
}

// String returns the ROT13 of s
func String(s string) string {
	return string(Apply([]byte(s)))
}

type reader struct {
	r io.Reader
}

// NewReader returns a reader that rotates everything read from r
func NewReader(r io.Reader) io.Reader {
	return &reader{r: r}
}

func (r *reader) Read(p []byte) (int, error) {
	n, err := r.r.Read(p)
	Transform(p[:n], p[:n])
	return n, err
}

type writer struct {
	w   io.Writer
	buf []byte
}

// NewWriter returns a writer that rotates p before passing it to w.
// The caller's slice is never modified.
func NewWriter(w io.Writer) io.Writer {
	return &writer{w: w}
}

func (w *writer) Write(p []byte) (int, error) {
	if cap(w.buf) < len(p) {
		w.buf = make([]byte, len(p))
	}
	buf := w.buf[:len(p)]
	Transform(buf, p)
	return w.w.Write(buf)
}
