// Command dx7-send transmits voices of a collection to a DX7 over MIDI.
package main

import (
	"flag"
	"log"
	"strconv"
	"time"

	"github.com/fjl/dx7/collection"
	"github.com/fjl/dx7/dx7"
	"github.com/fjl/dx7/internal/cmdutil"
)

// The DX7 needs time to store a bulk dump before it accepts the next message.
const bulkSettleTime = 500 * time.Millisecond

func main() {
	// Argument processing.
	var (
		outDevice = flag.String("dev", "", "MIDI output device")
		channel   = flag.Int("ch", 0, "Sysex channel number (0-15)")
		bulk      = flag.Bool("bulk", false, "Send 32 voices starting at index as a bulk dump")
	)
	flag.Parse()
	if flag.NArg() != 2 {
		log.Fatal("need collection file and voice index as arguments")
	}
	index, err := strconv.Atoi(flag.Arg(1))
	if err != nil {
		log.Fatal("invalid voice index: ", err)
	}
	if *channel < 0 || *channel > 15 {
		log.Fatalf("invalid channel %d", *channel)
	}

	coll, err := collection.ReadFile(flag.Arg(0))
	if err != nil {
		log.Fatal(err)
	}
	if index < 0 || index >= coll.Len() {
		log.Fatalf("voice index %d out of range, collection has %d voices", index, coll.Len())
	}

	var msg []byte
	if *bulk {
		b := bulkFrom(coll, index)
		log.Printf("sending voices %d..%d as bulk dump", index, index+dx7.BulkVoices-1)
		msg = b.Encode(nil)
	} else {
		v := coll.Voices[index]
		log.Printf("sending voice %d %q", index, v.Name())
		msg = dx7.EncodeVoiceDump(nil, byte(*channel), dx7.Unpack(&v))
	}

	conn, err := cmdutil.OpenOut(&cmdutil.Config{OutDevice: *outDevice})
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Close()
	if _, err := conn.Write(msg); err != nil {
		log.Fatal(err)
	}
	if *bulk {
		time.Sleep(bulkSettleTime)
	}
	log.Printf("sent %d bytes", len(msg))
}

// bulkFrom takes 32 voices starting at index. Missing voices at the end of
// the collection are filled with INIT VOICE.
func bulkFrom(coll *collection.Collection, index int) *dx7.Bulk {
	b := new(dx7.Bulk)
	for i := range b {
		if index+i < coll.Len() {
			b[i] = coll.Voices[index+i]
		} else {
			b[i] = dx7.InitVoice()
		}
	}
	return b
}
