// Command sessionexport lists recorded sessions and converts them to CSV.
//
//	sessionexport -dir sessions            list sessions, newest first
//	sessionexport path/to/x_GPS.json ...   write x_GPS.csv next to each file
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/fayvince/resmeter/internal/config"
	"github.com/fayvince/resmeter/internal/storage"
)

var (
	configFile = flag.String("config", "", "Configuration file used to locate the data directory")
	dataDir    = flag.String("dir", "", "Session directory to list (overrides the configured one)")
)

func main() {
	flag.Parse()

	if flag.NArg() == 0 {
		if err := list(); err != nil {
			fmt.Fprintf(os.Stderr, "sessionexport: %v\n", err)
			os.Exit(1)
		}
		return
	}

	failed := false
	for _, path := range flag.Args() {
		out, err := storage.ExportCSV(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "sessionexport: %s: %v\n", path, err)
			failed = true
			continue
		}
		fmt.Println(out)
	}
	if failed {
		os.Exit(1)
	}
}

func list() error {
	dir := *dataDir
	if dir == "" {
		cfg, err := config.Load(*configFile)
		if err != nil {
			return err
		}
		dir = cfg.Session.DataDir
	}

	paths, err := storage.List(dir)
	if err != nil {
		return err
	}
	for _, path := range paths {
		doc, err := storage.Load(path)
		if err != nil {
			fmt.Printf("%s\t(unreadable: %v)\n", path, err)
			continue
		}
		fmt.Printf("%s\t%s\t%d measurements\n", path, doc.StartTime, len(doc.Measurements))
	}
	return nil
}
