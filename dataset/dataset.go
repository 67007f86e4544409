// Package dataset exposes a voice collection as a training set of rendered
// notes. Every (voice, note, velocity) combination is one item.
package dataset

import (
	"math/rand"

	"github.com/fjl/dx7/collection"
	"github.com/fjl/dx7/dx7"
	"github.com/pkg/errors"
)

// Synth renders a packed voice. The engine plays note at velocity for
// onSamples samples, releases it and keeps rendering for offSamples. The
// returned buffer holds onSamples+offSamples samples.
type Synth interface {
	Synthesize(v *dx7.Voice, note, velocity uint8, onSamples, offSamples int) ([]float32, error)
}

// Config selects the items of a dataset.
type Config struct {
	Notes      []uint8
	Velocities []uint8
	NoteOn     int // samples rendered while the key is held
	NoteOff    int // samples rendered after release

	// Filter restricts the voices. nil keeps all.
	Filter collection.Filter

	// SubsampleRatio in (0, 1) keeps each voice with that probability.
	// Zero keeps all voices.
	SubsampleRatio float64
	Seed           int64
}

// Item is one rendered example.
type Item struct {
	Audio    []float32
	Params   []int // unpacked slots before the name
	Name     []int // unpacked name slots
	Voice    int   // index into Voices
	Note     uint8
	Velocity uint8
}

// Dataset indexes the renderable combinations of a collection.
type Dataset struct {
	cfg    Config
	synth  Synth
	voices []dx7.Voice
}

// New builds a dataset over the voices of c.
func New(cfg Config, c *collection.Collection, synth Synth) (*Dataset, error) {
	if len(cfg.Notes) == 0 {
		return nil, errors.New("no notes configured")
	}
	if len(cfg.Velocities) == 0 {
		return nil, errors.New("no velocities configured")
	}
	if cfg.NoteOn < 0 || cfg.NoteOff < 0 {
		return nil, errors.Errorf("negative note length %d/%d", cfg.NoteOn, cfg.NoteOff)
	}
	if cfg.SubsampleRatio < 0 || cfg.SubsampleRatio > 1 {
		return nil, errors.Errorf("subsample ratio %v out of range", cfg.SubsampleRatio)
	}
	if synth == nil {
		return nil, errors.New("nil synth")
	}
	filter := cfg.Filter
	if filter == nil {
		filter = collection.FilterAll
	}

	var (
		rnd = rand.New(rand.NewSource(cfg.Seed))
		ds  = &Dataset{cfg: cfg, synth: synth}
	)
	for i := range c.Voices {
		v := &c.Voices[i]
		if !filter(v) {
			continue
		}
		if cfg.SubsampleRatio > 0 && rnd.Float64() >= cfg.SubsampleRatio {
			continue
		}
		ds.voices = append(ds.voices, *v)
	}
	return ds, nil
}

// Voices returns the selected voices.
func (ds *Dataset) Voices() []dx7.Voice {
	return ds.voices
}

// Len returns the number of items.
func (ds *Dataset) Len() int {
	return len(ds.cfg.Notes) * len(ds.cfg.Velocities) * len(ds.voices)
}

// Index maps an item index to its voice, note and velocity indexes. Notes
// vary fastest, then velocities.
func (ds *Dataset) Index(idx int) (voice, note, velocity int) {
	nNotes, nVel := len(ds.cfg.Notes), len(ds.cfg.Velocities)
	note = idx % nNotes
	idx /= nNotes
	velocity = idx % nVel
	voice = idx / nVel
	return voice, note, velocity
}

// Item renders item idx.
func (ds *Dataset) Item(idx int) (*Item, error) {
	if idx < 0 || idx >= ds.Len() {
		return nil, errors.Errorf("item %d out of range [0, %d)", idx, ds.Len())
	}
	vi, ni, veli := ds.Index(idx)
	v := &ds.voices[vi]
	it := &Item{
		Voice:    vi,
		Note:     ds.cfg.Notes[ni],
		Velocity: ds.cfg.Velocities[veli],
	}
	audio, err := ds.synth.Synthesize(v, it.Note, it.Velocity, ds.cfg.NoteOn, ds.cfg.NoteOff)
	if err != nil {
		return nil, errors.Wrapf(err, "voice %d (%s)", vi, v.Name())
	}
	if len(audio) != ds.cfg.NoteOn+ds.cfg.NoteOff {
		return nil, errors.Errorf("synth returned %d samples, want %d", len(audio), ds.cfg.NoteOn+ds.cfg.NoteOff)
	}
	p := dx7.Unpack(v)
	it.Audio = audio
	it.Params = append([]int(nil), p.Features()...)
	it.Name = append([]int(nil), p.NameBytes()...)
	return it, nil
}
