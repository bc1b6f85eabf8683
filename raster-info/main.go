package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"log"
	"os"

	"github.com/nci/aoiclip/raster"
	"github.com/nci/aoiclip/utils"
)

func ensure(err error) {
	if err != nil {
		log.Fatal(err)
	}
}

func main() {
	stats := flag.Bool("stats", false, "compute per band statistics")
	flag.Parse()

	if flag.NArg() != 1 {
		log.Fatal("Please provide a path to a file or '-' for reading from stdin")
	}

	path := flag.Arg(0)

	if path == "-" {
		scanner := bufio.NewScanner(os.Stdin)
		scanner.Scan()
		path = scanner.Text()
	}

	utils.InitGdal()
	info, err := raster.ExtractInfo(path, *stats)
	ensure(err)

	out, err := json.Marshal(info)
	ensure(err)

	_, err = os.Stdout.Write(append(out, '\n'))
	ensure(err)
}
