package dx7

import (
	"bytes"
	"errors"
	"fmt"
)

const (
	BulkVoices  = 32
	BulkPayload = BulkVoices * VoiceSize            // 4096
	BulkSize    = bulkHeaderSize + BulkPayload + 2 // header, payload, checksum, F7

	bulkHeaderSize  = 6
	voiceDumpParams = ParamCount - 1 // 155, the enable slot is not transmitted
	voiceDumpSize   = 6 + voiceDumpParams + 2
)

// bulkHeader starts a 32 voice bulk dump on channel 1:
// status, Yamaha ID, sub-status/channel, format 9, byte count 4096.
var bulkHeader = []byte{0xF0, 0x43, 0x00, 0x09, 0x20, 0x00}

var (
	ErrBulkSize       = errors.New("bulk dump has wrong size")
	ErrBulkHeader     = errors.New("bulk dump has wrong header")
	ErrChecksum       = errors.New("bad checksum")
	ErrTerminator     = errors.New("missing end of exclusive")
	errVoiceSize      = errors.New("voice data is not 128 bytes")
	errVoiceDumpBytes = errors.New("not a DX7 single voice dump")
)

// Bulk is the payload of a 32 voice bulk dump.
type Bulk [BulkVoices]Voice

// ParseBulk validates a bulk dump and returns its voices. Only the length and
// header are checked unless verify is set, in which case the checksum and the
// end of exclusive byte must match as well.
func ParseBulk(data []byte, verify bool) (*Bulk, error) {
	payload, err := BulkPayloadOf(data)
	if err != nil {
		return nil, err
	}
	if verify {
		if data[BulkSize-1] != 0xF7 {
			return nil, ErrTerminator
		}
		if cs := Checksum(payload); cs != data[BulkSize-2] {
			return nil, fmt.Errorf("%w: have %#02x, want %#02x", ErrChecksum, data[BulkSize-2], cs)
		}
	}
	b := new(Bulk)
	for i := range b {
		copy(b[i][:], payload[i*VoiceSize:])
	}
	return b, nil
}

// BulkPayloadOf returns the 4096 byte voice block of a bulk dump. The data
// must be exactly BulkSize bytes and start with the 32 voice header.
func BulkPayloadOf(data []byte) ([]byte, error) {
	if len(data) != BulkSize {
		return nil, ErrBulkSize
	}
	if !bytes.HasPrefix(data, bulkHeader) {
		return nil, ErrBulkHeader
	}
	return data[bulkHeaderSize : bulkHeaderSize+BulkPayload], nil
}

// Encode appends the complete SysEx message of the bulk dump to buf.
func (b *Bulk) Encode(buf []byte) []byte {
	buf = append(buf, bulkHeader...)
	start := len(buf)
	for i := range b {
		buf = append(buf, b[i][:]...)
	}
	return append(buf, Checksum(buf[start:]), 0xF7)
}

// Checksum returns the masked two's complement of the sum of data.
func Checksum(data []byte) byte {
	var sum byte
	for _, c := range data {
		sum += c
	}
	return -sum & 0x7F
}

// VoiceFromBytes copies a 128 byte slice into a Voice.
func VoiceFromBytes(b []byte) (Voice, error) {
	var v Voice
	if len(b) != VoiceSize {
		return v, errVoiceSize
	}
	copy(v[:], b)
	return v, nil
}

// EncodeVoiceDump appends a single voice dump (format 0) for the given
// channel to buf. The data is the first 155 unpacked parameters.
func EncodeVoiceDump(buf []byte, channel byte, p Params) []byte {
	p.Clamp()
	buf = append(buf, 0xF0, 0x43, channel&0x0F, 0x00, 0x01, 0x1B)
	start := len(buf)
	for _, v := range p[:voiceDumpParams] {
		buf = append(buf, byte(v))
	}
	return append(buf, Checksum(buf[start:]), 0xF7)
}

// DecodeVoiceDump parses a single voice dump message.
func DecodeVoiceDump(msg []byte) (Params, error) {
	var p Params
	if len(msg) != voiceDumpSize {
		return p, fmt.Errorf("bad size %d for voice dump", len(msg))
	}
	if msg[0] != 0xF0 || msg[1] != 0x43 || msg[3] != 0x00 || msg[4] != 0x01 || msg[5] != 0x1B {
		return p, errVoiceDumpBytes
	}
	data := msg[6 : 6+voiceDumpParams]
	if cs := Checksum(data); cs != msg[voiceDumpSize-2] {
		return p, ErrChecksum
	}
	if msg[voiceDumpSize-1] != 0xF7 {
		return p, ErrTerminator
	}
	for i, c := range data {
		p[i] = int(c)
	}
	p[ParamCount-1] = AllOperatorsOn
	p.Clamp()
	return p, nil
}
