// Package collection builds and reads DX7 voice collections: flat files of
// unique 128 byte packed voices gathered from directories of bulk dumps.
package collection

import (
	"hash/crc32"
	"log"
	"os"
	"path/filepath"

	"github.com/fjl/dx7/dx7"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// ErrNoFiles is returned by Build when the input directory holds no regular files.
var ErrNoFiles = errors.New("no files in input directory")

// Reason tells why a file was accepted or skipped.
type Reason byte

const (
	Accepted Reason = iota
	RejectSize
	RejectHeader
	RejectChecksum
)

func (r Reason) String() string {
	switch r {
	case Accepted:
		return "accepted"
	case RejectSize:
		return "wrong size"
	case RejectHeader:
		return "wrong sysex header"
	case RejectChecksum:
		return "bad checksum or terminator"
	default:
		return "unknown"
	}
}

// FileResult is the outcome of validating one candidate file.
type FileResult struct {
	Name   string
	Reason Reason
	Voices []dx7.Voice // 32 voices in file order if accepted
}

// Accepted reports whether the file contributed voices.
func (r *FileResult) Accepted() bool {
	return r.Reason == Accepted
}

// Classify validates a candidate file. Files are accepted when they are
// exactly one 32 voice bulk dump with the expected header. Checksum and
// terminator are checked only if verify is set.
func Classify(name string, data []byte, verify bool) FileResult {
	res := FileResult{Name: name}
	block, err := dx7.BulkPayloadOf(data)
	if err == nil && verify {
		_, err = dx7.ParseBulk(data, true)
	}
	switch {
	case err == nil:
	case errors.Is(err, dx7.ErrBulkSize):
		res.Reason = RejectSize
		return res
	case errors.Is(err, dx7.ErrBulkHeader):
		res.Reason = RejectHeader
		return res
	default:
		res.Reason = RejectChecksum
		return res
	}
	res.Voices, _ = Split(block)
	return res
}

// Split partitions a 4096 byte voice block into 32 voices.
func Split(block []byte) ([]dx7.Voice, error) {
	if len(block) != dx7.BulkPayload {
		return nil, errors.Errorf("voice block has %d bytes, want %d", len(block), dx7.BulkPayload)
	}
	voices := make([]dx7.Voice, dx7.BulkVoices)
	for i := range voices {
		copy(voices[i][:], block[i*dx7.VoiceSize:])
	}
	return voices, nil
}

// Fingerprint hashes the parameter region of a voice. The name is excluded
// so renamed copies of a voice collide.
func Fingerprint(v *dx7.Voice) uint32 {
	return crc32.ChecksumIEEE(v[:dx7.FingerprintSize])
}

// Summary holds the counts of a build run.
type Summary struct {
	FilesFound       int
	FilesProcessed   int
	VoicesConsidered int
	Duplicates       int
	Unique           int
}

// Result is the output of a build.
type Result struct {
	Collection
	Files   []FileResult // per-file outcome, voices dropped
	Summary Summary
}

// Builder gathers unique voices from a directory of bulk dumps.
type Builder struct {
	// Workers > 1 reads and validates files concurrently. Deduplication
	// always runs in directory order, so the output does not depend on it.
	Workers int

	// VerifyChecksum additionally rejects files with a bad checksum or
	// missing end of exclusive byte.
	VerifyChecksum bool

	// Log receives progress lines. nil disables logging.
	Log *log.Logger
}

// Build scans dir (not recursively) in listing order and returns the unique
// voices of all accepted files, first occurrence first.
func (b *Builder) Build(dir string) (*Result, error) {
	names, err := listFiles(dir)
	if err != nil {
		return nil, err
	}
	b.logf("found %d files", len(names))

	results, err := b.classifyAll(dir, names)
	if err != nil {
		return nil, err
	}

	d := newDedup()
	d.sum.FilesFound = len(names)
	for i := range results {
		d.add(&results[i])
		results[i].Voices = nil
	}
	d.sum.Unique = len(d.voices)

	b.logf("processed %d files, %d voices", d.sum.FilesProcessed, d.sum.VoicesConsidered)
	b.logf("filtered %d duplicates", d.sum.Duplicates)
	b.logf("collection contains %d voices", d.sum.Unique)
	return &Result{Collection: Collection{Voices: d.voices}, Files: results, Summary: d.sum}, nil
}

func (b *Builder) classifyAll(dir string, names []string) ([]FileResult, error) {
	results := make([]FileResult, len(names))
	classify := func(i int) error {
		data, err := os.ReadFile(filepath.Join(dir, names[i]))
		if err != nil {
			return errors.WithStack(err)
		}
		results[i] = Classify(names[i], data, b.VerifyChecksum)
		return nil
	}

	if b.Workers <= 1 {
		for i := range names {
			if err := classify(i); err != nil {
				return nil, err
			}
		}
		return results, nil
	}
	var g errgroup.Group
	g.SetLimit(b.Workers)
	for i := range names {
		i := i
		g.Go(func() error { return classify(i) })
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (b *Builder) logf(format string, args ...interface{}) {
	if b.Log != nil {
		b.Log.Printf(format, args...)
	}
}

// listFiles returns the regular files in dir, following symlinks.
func listFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrap(err, "can't list input directory")
	}
	var names []string
	for _, e := range entries {
		mode := e.Type()
		if mode&os.ModeSymlink != 0 {
			fi, err := os.Stat(filepath.Join(dir, e.Name()))
			if err != nil {
				continue // dangling link
			}
			mode = fi.Mode()
		}
		if mode.IsRegular() {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return nil, errors.Wrapf(ErrNoFiles, "%s", dir)
	}
	return names, nil
}

// dedup is the state of one build run.
type dedup struct {
	seen   map[uint32]struct{}
	voices []dx7.Voice
	sum    Summary
}

func newDedup() *dedup {
	return &dedup{seen: make(map[uint32]struct{})}
}

func (d *dedup) add(res *FileResult) {
	if !res.Accepted() {
		return
	}
	d.sum.FilesProcessed++
	for i := range res.Voices {
		d.sum.VoicesConsidered++
		fp := Fingerprint(&res.Voices[i])
		if _, ok := d.seen[fp]; ok {
			d.sum.Duplicates++
			continue
		}
		d.seen[fp] = struct{}{}
		d.voices = append(d.voices, res.Voices[i])
	}
}
