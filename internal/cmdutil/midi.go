package cmdutil

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"gitlab.com/gomidi/midi"
	driver "gitlab.com/gomidi/rtmididrv"
)

// ErrTimeout is returned by Receive when no SysEx message arrived in time.
var ErrTimeout = errors.New("timed out waiting for sysex")

type Config struct {
	OutDevice string
	InDevice  string
}

// Conn is a MIDI connection to a DX7. Either side may be absent.
type Conn struct {
	SysexCh chan []byte // receives all sysex messages

	drv midi.Driver
	in  midi.In
	out midi.Out
}

// OpenOut opens the output port selected by cfg.OutDevice. The first output
// is used if OutDevice is empty.
func OpenOut(cfg *Config) (*Conn, error) {
	drv, err := newDriver()
	if err != nil {
		return nil, err
	}
	outputs, err := drv.Outs()
	if err != nil {
		drv.Close()
		return nil, fmt.Errorf("can't list MIDI outputs: %v", err)
	}
	out, err := selectPort("output", cfg.OutDevice, outs(outputs))
	if err != nil {
		drv.Close()
		return nil, err
	}
	log.Println("midi output:", out)
	if err := out.Open(); err != nil {
		drv.Close()
		return nil, fmt.Errorf("can't open MIDI output: %v", err)
	}
	return &Conn{drv: drv, out: out.(midi.Out)}, nil
}

// OpenIn opens the input port selected by cfg.InDevice and starts
// collecting SysEx messages on SysexCh.
func OpenIn(cfg *Config) (*Conn, error) {
	drv, err := newDriver()
	if err != nil {
		return nil, err
	}
	inputs, err := drv.Ins()
	if err != nil {
		drv.Close()
		return nil, fmt.Errorf("can't list MIDI inputs: %v", err)
	}
	in, err := selectPort("input", cfg.InDevice, ins(inputs))
	if err != nil {
		drv.Close()
		return nil, err
	}
	log.Println("midi input:", in)
	if err := in.Open(); err != nil {
		drv.Close()
		return nil, fmt.Errorf("can't open MIDI input: %v", err)
	}

	c := &Conn{SysexCh: make(chan []byte, 16), drv: drv, in: in.(midi.In)}
	c.in.SetListener(func(msg []byte, deltaT int64) {
		if !isSysex(msg) {
			return
		}
		cpy := append([]byte(nil), msg...)
		select {
		case c.SysexCh <- cpy:
		default:
		}
	})
	return c, nil
}

func newDriver() (midi.Driver, error) {
	drv, err := driver.New(driver.IgnoreActiveSense(), driver.IgnoreTimeCode())
	if err != nil {
		return nil, err
	}
	return drv, nil
}

func isSysex(msg []byte) bool {
	return len(msg) > 0 && msg[0] == 0xf0 && msg[len(msg)-1] == 0xf7
}

// Write sends a raw message.
func (c *Conn) Write(msg []byte) (int, error) {
	if c.out == nil {
		return 0, errors.New("MIDI output not open")
	}
	return c.out.Write(msg)
}

// Receive waits for the next SysEx message.
func (c *Conn) Receive(timeout time.Duration) ([]byte, error) {
	if c.in == nil {
		return nil, errors.New("MIDI input not open")
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case msg := <-c.SysexCh:
		return msg, nil
	case <-timer.C:
		return nil, ErrTimeout
	}
}

func (c *Conn) Close() {
	if c.in != nil {
		c.in.Close()
	}
	if c.out != nil {
		c.out.Close()
	}
	c.drv.Close()
}

// port is the common part of midi.In and midi.Out.
type port interface {
	Open() error
	String() string
}

func ins(list []midi.In) []port {
	ports := make([]port, len(list))
	for i := range list {
		ports[i] = list[i]
	}
	return ports
}

func outs(list []midi.Out) []port {
	ports := make([]port, len(list))
	for i := range list {
		ports[i] = list[i]
	}
	return ports
}

// selectPort returns the first port whose name contains want, ignoring
// case. An empty want selects the first port.
func selectPort(kind, want string, ports []port) (port, error) {
	if len(ports) == 0 {
		return nil, fmt.Errorf("no MIDI %ss", kind)
	}
	if want == "" {
		return ports[0], nil
	}
	var names []string
	for _, p := range ports {
		name := p.String()
		names = append(names, name)
		if strings.Contains(strings.ToLower(name), strings.ToLower(want)) {
			return p, nil
		}
	}
	return nil, fmt.Errorf("can't find MIDI %s device %q, have %v", kind, want, names)
}
