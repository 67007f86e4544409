// Command dx7-recv stores a 32 voice bulk dump sent by a DX7.
//
// Start it, then trigger the dump on the synthesizer (FUNCTION, button 8,
// MIDI TRANSMIT).
package main

import (
	"flag"
	"log"
	"os"
	"time"

	"github.com/fjl/dx7/dx7"
	"github.com/fjl/dx7/internal/cmdutil"
)

func main() {
	var (
		inDevice = flag.String("dev", "", "MIDI input device")
		timeout  = flag.Duration("timeout", time.Minute, "How long to wait for the dump")
	)
	flag.Parse()
	if flag.NArg() != 1 {
		log.Fatal("need output file as argument")
	}

	conn, err := cmdutil.OpenIn(&cmdutil.Config{InDevice: *inDevice})
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Close()

	log.Println("waiting for bulk dump")
	deadline := time.Now().Add(*timeout)
	for {
		msg, err := conn.Receive(time.Until(deadline))
		if err != nil {
			log.Fatal(err)
		}
		bulk, err := dx7.ParseBulk(msg, true)
		if err != nil {
			log.Printf("ignoring sysex message (%d bytes): %v", len(msg), err)
			continue
		}
		if err := os.WriteFile(flag.Arg(0), bulk.Encode(nil), 0644); err != nil {
			log.Fatal(err)
		}
		log.Printf("wrote %s, first voice %q", flag.Arg(0), bulk[0].Name())
		return
	}
}
