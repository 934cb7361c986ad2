package object

import (
	"bufio"
	"io"
	"strconv"

	"github.com/pkg/errors"
)

// IntReader supplies the integers READLN consumes.
type IntReader interface {
	// ReadInt returns io.EOF when the input is exhausted.
	ReadInt() (Value, error)
}

// WordReader reads whitespace and line delimited integers from a stream.
type WordReader struct {
	sc *bufio.Scanner
}

// NewWordReader wraps r. A nil reader behaves like an empty one.
func NewWordReader(r io.Reader) *WordReader {
	if r == nil {
		r = eofReader{}
	}
	sc := bufio.NewScanner(r)
	sc.Split(bufio.ScanWords)
	return &WordReader{sc: sc}
}

func (w *WordReader) ReadInt() (Value, error) {
	if !w.sc.Scan() {
		if err := w.sc.Err(); err != nil {
			return 0, errors.Wrap(err, "read input")
		}
		return 0, io.EOF
	}
	word := w.sc.Text()
	n, err := strconv.ParseInt(word, 10, 32)
	if err != nil {
		return 0, errors.Errorf("%q is not a 32-bit integer", word)
	}
	return Value(n), nil
}

type eofReader struct{}

func (eofReader) Read([]byte) (int, error) { return 0, io.EOF }
