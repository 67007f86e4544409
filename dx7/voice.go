// Package dx7 implements the Yamaha DX7 voice data formats: the 128 byte packed
// voice found in 32-voice bulk dumps and the 156 parameter unpacked voice
// consumed by synthesis engines.
package dx7

import "strings"

const (
	VoiceSize       = 128 // packed voice size
	ParamCount      = 156 // unpacked voice slots
	FeatureCount    = 145 // unpacked slots before the name
	NameSize        = 10
	FingerprintSize = 118 // packed bytes covered by a fingerprint, excludes the name

	// AllOperatorsOn is the synthesized operator enable slot.
	AllOperatorsOn = 0x3F

	numOps         = 6
	packedOpSize   = 17
	unpackedOpSize = 21
	nameOffset     = 118
)

// Voice is a packed voice as stored in a bulk dump. Operators are stored in
// transmission order, OP6 first.
type Voice [VoiceSize]byte

// Params is an unpacked voice. Slots 0..125 hold six 21 slot operator
// records (OP6 first), 126..144 the global parameters, 145..154 the name and
// 155 the operator enable mask.
type Params [ParamCount]int

// paramMax holds the largest legal value for each unpacked slot.
var paramMax = func() (m [ParamCount]int) {
	op := [unpackedOpSize]int{
		99, 99, 99, 99, 99, 99, 99, 99, 99, 99, 99, // EG rates/levels, break point, depths
		3, 3, 7, 3, 7, 99, 1, 31, 99, 14,
	}
	for i := 0; i < numOps; i++ {
		copy(m[i*unpackedOpSize:], op[:])
	}
	global := []int{
		99, 99, 99, 99, 99, 99, 99, 99, // pitch EG rates & levels
		31, 7, 1, 99, 99, 99, 99, 1, 5, 7, 48, // algorithm .. transpose
		126, 126, 126, 126, 126, 126, 126, 126, 126, 126, // name
		127, // operator on/off
	}
	copy(m[numOps*unpackedOpSize:], global)
	return m
}()

// MaxParam returns the largest legal value of unpacked slot i.
func MaxParam(i int) int {
	return paramMax[i]
}

// Clamp forces every slot into [0, MaxParam(i)].
func (p *Params) Clamp() {
	for i, v := range p {
		switch {
		case v > paramMax[i]:
			p[i] = paramMax[i]
		case v < 0:
			p[i] = 0
		}
	}
}

// Unpack expands a packed voice into its parameter slots. It is total over
// all inputs; out of range fields are clamped.
func Unpack(v *Voice) Params {
	var o Params
	for op := 0; op < numOps; op++ {
		s := v[op*packedOpSize : (op+1)*packedOpSize]
		d := o[op*unpackedOpSize : (op+1)*unpackedOpSize]
		for i := 0; i < 11; i++ {
			d[i] = int(s[i])
		}
		d[11] = int(s[11] & 0x03)        // bits 0-1: right curve
		d[12] = int((s[11] >> 2) & 0x03) // bits 2-3: left curve
		d[13] = int(s[12] & 0x07)        // bits 0-2: rate scaling
		d[20] = int(s[12] >> 3)          // bits 3-6: detune
		d[14] = int(s[13] & 0x03)        // bits 0-1: key velocity sensitivity
		d[15] = int(s[13] >> 2)          // bits 2-4: amplitude mod sensitivity
		d[16] = int(s[14])               // output level
		d[17] = int(s[15] & 0x01)        // bit 0: oscillator mode (1 = fixed)
		d[18] = int(s[15] >> 1)          // bits 1-5: frequency coarse
		d[19] = int(s[16])               // frequency fine
	}
	for i := 0; i < 9; i++ {
		o[126+i] = int(v[102+i]) // pitch EG, algorithm
	}
	o[135] = int(v[111] & 0x07) // bits 0-2: feedback
	o[136] = int(v[111] >> 3)   // bit 3: oscillator key sync
	for i := 0; i < 4; i++ {
		o[137+i] = int(v[112+i]) // LFO speed, delay, PMD, AMD
	}
	o[141] = int(v[116] & 0x01)        // bit 0: LFO key sync
	o[142] = int((v[116] >> 1) & 0x07) // bits 1-3: LFO waveform
	o[143] = int(v[116] >> 4)          // bits 4-6: pitch mod sensitivity
	for i := 0; i < 11; i++ {
		o[144+i] = int(v[117+i]) // transpose, name
	}
	o[155] = AllOperatorsOn
	o.Clamp()
	return o
}

// Pack is the inverse of Unpack. Parameters are clamped before packing and
// the operator enable slot is dropped.
func Pack(p Params) Voice {
	var v Voice
	p.Clamp()
	for op := 0; op < numOps; op++ {
		s := p[op*unpackedOpSize : (op+1)*unpackedOpSize]
		d := v[op*packedOpSize : (op+1)*packedOpSize]
		for i := 0; i < 11; i++ {
			d[i] = byte(s[i])
		}
		d[11] = byte(s[12]&0x03)<<2 | byte(s[11]&0x03)
		d[12] = byte(s[20]&0x0F)<<3 | byte(s[13]&0x07)
		d[13] = byte(s[15]&0x07)<<2 | byte(s[14]&0x03)
		d[14] = byte(s[16])
		d[15] = byte(s[18]&0x1F)<<1 | byte(s[17]&0x01)
		d[16] = byte(s[19])
	}
	for i := 0; i < 9; i++ {
		v[102+i] = byte(p[126+i])
	}
	v[111] = byte(p[136]&0x01)<<3 | byte(p[135]&0x07)
	for i := 0; i < 4; i++ {
		v[112+i] = byte(p[137+i])
	}
	v[116] = byte(p[143]&0x07)<<4 | byte(p[142]&0x07)<<1 | byte(p[141]&0x01)
	for i := 0; i < 11; i++ {
		v[117+i] = byte(p[144+i])
	}
	return v
}

// Features returns the slots used as a training target: everything before
// the name.
func (p *Params) Features() []int {
	return p[:FeatureCount]
}

// NameBytes returns the name slots.
func (p *Params) NameBytes() []int {
	return p[FeatureCount : FeatureCount+NameSize]
}

// Name decodes the voice name. Bytes outside 7-bit ASCII are dropped to
// NUL, trailing spaces and NULs are trimmed.
func (v *Voice) Name() string {
	var b [NameSize]byte
	for i, c := range v[nameOffset:] {
		if c < 0x80 {
			b[i] = c
		}
	}
	return strings.TrimRight(string(b[:]), " \x00")
}

// SetName stores name in the voice, padded with spaces and truncated to ten
// characters.
func (v *Voice) SetName(name string) {
	for i := 0; i < NameSize; i++ {
		c := byte(' ')
		if i < len(name) && name[i] < 0x80 {
			c = name[i]
		}
		v[nameOffset+i] = c
	}
}

// OscModes returns the oscillator mode bit of every operator, OP6 first.
// true means fixed frequency.
func (v *Voice) OscModes() [numOps]bool {
	var m [numOps]bool
	for op := range m {
		m[op] = v[op*packedOpSize+15]&0x01 != 0
	}
	return m
}

// AllRatio reports whether every operator runs in ratio mode.
func (v *Voice) AllRatio() bool {
	for _, fixed := range v.OscModes() {
		if fixed {
			return false
		}
	}
	return true
}

// AllFixed reports whether every operator runs in fixed frequency mode.
func (v *Voice) AllFixed() bool {
	for _, fixed := range v.OscModes() {
		if !fixed {
			return false
		}
	}
	return true
}

// InitVoice returns the DX7 "INIT VOICE": algorithm 1, only OP1 sounding.
func InitVoice() Voice {
	var p Params
	for op := 0; op < numOps; op++ {
		d := p[op*unpackedOpSize:]
		d[0], d[1], d[2], d[3] = 99, 99, 99, 99 // rates
		d[4], d[5], d[6], d[7] = 99, 99, 99, 0  // levels
		d[8] = 39                               // break point C3
		d[18] = 1                               // coarse
		d[20] = 7                               // detune center
	}
	p[5*unpackedOpSize+16] = 99 // OP1 output level
	copy(p[126:], []int{99, 99, 99, 99, 50, 50, 50, 50})
	p[136] = 1  // osc key sync
	p[137] = 35 // LFO speed
	p[141] = 1  // LFO key sync
	p[143] = 3  // pitch mod sensitivity
	p[144] = 24 // transpose C3
	v := Pack(p)
	v.SetName("INIT VOICE")
	return v
}
