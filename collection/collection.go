package collection

import (
	"bytes"
	"io"
	"os"

	"github.com/fjl/dx7/dx7"
	"github.com/pkg/errors"
)

// DefaultFile is the artifact name written by dx7pack.
const DefaultFile = "collection.bin"

// ErrSize is returned when a collection file is not a whole number of voices.
var ErrSize = errors.New("collection size is not a multiple of 128")

// Collection is a sequence of packed voices. Its file format is the raw
// concatenation of the voices, no header.
type Collection struct {
	Voices []dx7.Voice
}

// Read decodes a collection from r.
func Read(r io.Reader) (*Collection, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return Decode(data)
}

// ReadFile loads a collection file.
func ReadFile(file string) (*Collection, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	c, err := Decode(data)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", file)
	}
	return c, nil
}

// Decode splits raw collection bytes into voices.
func Decode(data []byte) (*Collection, error) {
	if len(data)%dx7.VoiceSize != 0 {
		return nil, errors.Wrapf(ErrSize, "%d bytes", len(data))
	}
	c := &Collection{Voices: make([]dx7.Voice, len(data)/dx7.VoiceSize)}
	for i := range c.Voices {
		copy(c.Voices[i][:], data[i*dx7.VoiceSize:])
	}
	return c, nil
}

// Len returns the number of voices.
func (c *Collection) Len() int {
	return len(c.Voices)
}

// Bytes returns the encoded collection.
func (c *Collection) Bytes() []byte {
	buf := make([]byte, 0, len(c.Voices)*dx7.VoiceSize)
	for i := range c.Voices {
		buf = append(buf, c.Voices[i][:]...)
	}
	return buf
}

// WriteTo writes the encoded collection to w.
func (c *Collection) WriteTo(w io.Writer) (int64, error) {
	n, err := io.Copy(w, bytes.NewReader(c.Bytes()))
	return n, errors.WithStack(err)
}

// WriteFile stores the collection in file.
func (c *Collection) WriteFile(file string) error {
	return errors.WithStack(os.WriteFile(file, c.Bytes(), 0644))
}

// Filter returns the voices matching f, in order.
func (c *Collection) Filter(f Filter) *Collection {
	out := new(Collection)
	for i := range c.Voices {
		if f(&c.Voices[i]) {
			out.Voices = append(out.Voices, c.Voices[i])
		}
	}
	return out
}

// Filter selects voices.
type Filter func(*dx7.Voice) bool

// Voice filters.
var (
	FilterAll      Filter = func(*dx7.Voice) bool { return true }
	FilterAllRatio Filter = (*dx7.Voice).AllRatio
	FilterAllFixed Filter = (*dx7.Voice).AllFixed
)

// FilterByName looks up a filter: "all" (or empty), "all_ratio", "all_fixed".
func FilterByName(name string) (Filter, error) {
	switch name {
	case "", "all":
		return FilterAll, nil
	case "all_ratio":
		return FilterAllRatio, nil
	case "all_fixed":
		return FilterAllFixed, nil
	default:
		return nil, errors.Errorf("unknown voice filter %q", name)
	}
}
