package dx7

import (
	"bytes"
	"errors"
	mrand "math/rand"
	"reflect"
	"testing"
)

// testVoice returns a well formed voice with every field inside its range.
func testVoice(seed int64) Voice {
	rnd := mrand.New(mrand.NewSource(seed))
	var p Params
	for i := range p {
		p[i] = rnd.Intn(paramMax[i] + 1)
	}
	return Pack(p)
}

func TestParamMaxTable(t *testing.T) {
	op := []int{99, 99, 99, 99, 99, 99, 99, 99, 99, 99, 99, 3, 3, 7, 3, 7, 99, 1, 31, 99, 14}
	for i := 0; i < 6; i++ {
		if got := paramMax[i*21 : (i+1)*21]; !reflect.DeepEqual(got, op) {
			t.Fatalf("operator %d maxima %v, want %v", i, got, op)
		}
	}
	tail := []int{
		99, 99, 99, 99, 99, 99, 99, 99,
		31, 7, 1, 99, 99, 99, 99, 1, 5, 7, 48,
		126, 126, 126, 126, 126, 126, 126, 126, 126, 126,
		127,
	}
	if got := paramMax[126:]; !reflect.DeepEqual(got, tail) {
		t.Fatalf("global maxima %v, want %v", got, tail)
	}
}

func TestUnpackCurveBits(t *testing.T) {
	var v Voice
	v[11] = 0x09 // 0b1001
	p := Unpack(&v)
	if p[11] != 0x01 {
		t.Errorf("slot 11 = %#b, want 0b01", p[11])
	}
	if p[12] != 0x02 {
		t.Errorf("slot 12 = %#b, want 0b10", p[12])
	}
}

func TestUnpackFields(t *testing.T) {
	var v Voice
	base := 2 * packedOpSize
	v[base+12] = 5<<3 | 6   // detune 5, rate scaling 6
	v[base+13] = 4<<2 | 2   // velocity sens 4, amp mod sens 2
	v[base+14] = 77         // output level
	v[base+15] = 17<<1 | 1  // coarse 17, fixed
	v[base+16] = 42         // fine
	v[102], v[110] = 11, 21 // pitch EG rate 1, algorithm
	v[111] = 1<<3 | 5       // osc sync, feedback
	v[116] = 3<<4 | 4<<1 | 1
	v[117] = 24
	copy(v[118:], "E.PIANO 1 ")

	p := Unpack(&v)
	d := 2 * unpackedOpSize
	want := map[int]int{
		d + 13: 6, d + 20: 5,
		d + 14: 2, d + 15: 4,
		d + 16: 77,
		d + 17: 1, d + 18: 17,
		d + 19: 42,
		126: 11, 134: 21,
		135: 5, 136: 1,
		141: 1, 142: 4, 143: 3,
		144: 24,
		145: 'E', 154: ' ',
		155: AllOperatorsOn,
	}
	for slot, w := range want {
		if p[slot] != w {
			t.Errorf("slot %d = %d, want %d", slot, p[slot], w)
		}
	}
}

func TestUnpackTotal(t *testing.T) {
	var zero, ones Voice
	for i := range ones {
		ones[i] = 0xFF
	}
	rnd := mrand.New(mrand.NewSource(1))
	inputs := []Voice{zero, ones}
	for i := 0; i < 100; i++ {
		var v Voice
		rnd.Read(v[:])
		inputs = append(inputs, v)
	}
	for _, v := range inputs {
		p := Unpack(&v)
		for i, x := range p {
			if x < 0 || x > paramMax[i] {
				t.Fatalf("slot %d = %d out of [0, %d] for input %x", i, x, paramMax[i], v)
			}
		}
		if p2 := Unpack(&v); p2 != p {
			t.Fatal("unpack is not deterministic")
		}
	}
}

func TestClampNegative(t *testing.T) {
	var p Params
	p[0], p[11], p[155] = -5, 9, 200
	p.Clamp()
	if p[0] != 0 || p[11] != 3 || p[155] != 127 {
		t.Fatalf("clamped to %d %d %d", p[0], p[11], p[155])
	}
}

func TestPackRoundtrip(t *testing.T) {
	for seed := int64(0); seed < 50; seed++ {
		v := testVoice(seed)
		p := Unpack(&v)
		if back := Pack(p); back != v {
			t.Fatalf("seed %d: roundtrip mismatch\n got: %x\nwant: %x", seed, back, v)
		}
	}
}

func TestVoiceName(t *testing.T) {
	var v Voice
	v.SetName("BRASS 1")
	if got := v.Name(); got != "BRASS 1" {
		t.Fatalf("Name() = %q", got)
	}
	v[nameOffset+2] = 0xC1
	if got := v.Name(); got != "BR\x00SS 1" {
		t.Fatalf("Name() with high byte = %q", got)
	}
}

func TestOscModes(t *testing.T) {
	v := InitVoice()
	if !v.AllRatio() || v.AllFixed() {
		t.Fatal("init voice should be all ratio")
	}
	for op := 0; op < 6; op++ {
		v[op*packedOpSize+15] |= 1
	}
	if v.AllRatio() || !v.AllFixed() {
		t.Fatal("voice should be all fixed")
	}
	v[15] &^= 1
	if v.AllRatio() || v.AllFixed() {
		t.Fatal("mixed voice matched a filter")
	}
}

func TestInitVoice(t *testing.T) {
	v := InitVoice()
	if v.Name() != "INIT VOICE" {
		t.Errorf("name %q", v.Name())
	}
	pt := Unpack(&v)
	patch := pt.Patch()
	if patch.Operators[5].OutputLevel != 99 || patch.Operators[0].OutputLevel != 0 {
		t.Errorf("wrong output levels: %+v", patch.Operators)
	}
	if patch.Transpose != 24 || patch.LFO.Speed != 35 {
		t.Errorf("wrong globals: %+v", patch)
	}
}

func TestPatchView(t *testing.T) {
	v := testVoice(7)
	p := Unpack(&v)
	if back := p.Patch().Params(); back != p {
		t.Fatalf("patch view roundtrip mismatch\n got: %v\nwant: %v", back, p)
	}
}

func TestParseBulk(t *testing.T) {
	var b Bulk
	for i := range b {
		b[i] = testVoice(int64(i))
	}
	enc := b.Encode(nil)
	if len(enc) != BulkSize {
		t.Fatalf("encoded size %d, want %d", len(enc), BulkSize)
	}
	if !bytes.HasPrefix(enc, []byte{0xF0, 0x43, 0x00, 0x09, 0x20, 0x00}) {
		t.Fatalf("wrong header %x", enc[:6])
	}
	dec, err := ParseBulk(enc, true)
	if err != nil {
		t.Fatal(err)
	}
	if *dec != b {
		t.Fatal("decoded voices differ")
	}

	// Checksum and terminator are only checked on request.
	enc[BulkSize-2] ^= 0x01
	enc[BulkSize-1] = 0x00
	if _, err := ParseBulk(enc, false); err != nil {
		t.Fatal("unverified parse failed:", err)
	}
	if _, err := ParseBulk(enc, true); !errors.Is(err, ErrTerminator) {
		t.Fatalf("got %v, want ErrTerminator", err)
	}
	enc[BulkSize-1] = 0xF7
	if _, err := ParseBulk(enc, true); !errors.Is(err, ErrChecksum) {
		t.Fatalf("got %v, want ErrChecksum", err)
	}
}

func TestParseBulkArbitraryPayload(t *testing.T) {
	data := make([]byte, BulkSize)
	mrand.New(mrand.NewSource(3)).Read(data)
	copy(data, []byte{0xF0, 0x43, 0x00, 0x09, 0x20, 0x00})
	b, err := ParseBulk(data, false)
	if err != nil {
		t.Fatal(err)
	}
	for i := range b {
		if !bytes.Equal(b[i][:], data[6+i*128:6+(i+1)*128]) {
			t.Fatalf("voice %d not split at its offset", i)
		}
	}
}

func TestParseBulkRejects(t *testing.T) {
	good := new(Bulk).Encode(nil)
	tests := []struct {
		name string
		data []byte
		err  error
	}{
		{"empty", nil, ErrBulkSize},
		{"short", good[:BulkSize-1], ErrBulkSize},
		{"long", append(append([]byte{}, good...), 0), ErrBulkSize},
	}
	for i := 0; i < 6; i++ {
		bad := append([]byte{}, good...)
		bad[i] ^= 0x01
		tests = append(tests, struct {
			name string
			data []byte
			err  error
		}{"header", bad, ErrBulkHeader})
	}
	for _, test := range tests {
		if _, err := ParseBulk(test.data, false); err != test.err {
			t.Errorf("%s: got %v, want %v", test.name, err, test.err)
		}
	}
}

func TestChecksum(t *testing.T) {
	tests := []struct {
		data []byte
		sum  byte
	}{
		{nil, 0x00},
		{[]byte{0x01}, 0x7F},
		{[]byte{0x7F, 0x01}, 0x00},
		{[]byte{0x10, 0x20, 0x30}, 0x20},
	}
	for _, test := range tests {
		if cs := Checksum(test.data); cs != test.sum {
			t.Errorf("Checksum(%x) = %#02x, want %#02x", test.data, cs, test.sum)
		}
	}
}

func TestVoiceDump(t *testing.T) {
	v := testVoice(11)
	p := Unpack(&v)
	msg := EncodeVoiceDump(nil, 3, p)
	if len(msg) != 163 {
		t.Fatalf("message size %d", len(msg))
	}
	if msg[2] != 0x03 {
		t.Fatalf("channel byte %#02x", msg[2])
	}
	dec, err := DecodeVoiceDump(msg)
	if err != nil {
		t.Fatal(err)
	}
	if dec != p {
		t.Fatalf("decoded params differ\n got: %v\nwant: %v", dec, p)
	}
	msg[10] ^= 0x01
	if _, err := DecodeVoiceDump(msg); err != ErrChecksum {
		t.Fatalf("got %v, want ErrChecksum", err)
	}
}

func TestVoiceFromBytes(t *testing.T) {
	if _, err := VoiceFromBytes(make([]byte, 127)); err == nil {
		t.Fatal("no error for short voice")
	}
	b := make([]byte, 128)
	b[127] = 9
	v, err := VoiceFromBytes(b)
	if err != nil || v[127] != 9 {
		t.Fatalf("got %v %v", v[127], err)
	}
}
