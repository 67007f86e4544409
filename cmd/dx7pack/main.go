// Command dx7pack packs the unique voices of all DX7 32 voice bulk dumps in
// a directory into collection.bin.
//
// Usage:
//
//	dx7pack /path/to/syx/files
package main

import (
	"flag"
	"log"
	"os"
	"runtime"

	"github.com/fjl/dx7/collection"
)

func main() {
	flag.Parse()
	if flag.NArg() != 1 {
		log.Fatal("need input directory as argument")
	}
	dir := flag.Arg(0)

	b := &collection.Builder{
		Workers: runtime.NumCPU(),
		Log:     log.New(os.Stderr, "", log.LstdFlags),
	}
	res, err := b.Build(dir)
	if err != nil {
		log.Fatal(err)
	}
	if err := res.WriteFile(collection.DefaultFile); err != nil {
		log.Fatal(err)
	}
	log.Printf("wrote %s (%d voices)", collection.DefaultFile, res.Len())
}
