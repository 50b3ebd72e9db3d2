package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/atinyakov/TaskKeeper/internal/client/api"
	"github.com/atinyakov/TaskKeeper/internal/client/session"
	"github.com/atinyakov/TaskKeeper/internal/client/shell"
)

var (
	version   string
	buildDate string
)

// main parses command-line flags and starts the interactive shell.
func main() {
	var (
		baseURL     string
		sessionFile string
		showVer     bool
	)

	flag.StringVar(&baseURL, "url", "http://localhost:8080", "server base URL")
	flag.StringVar(&sessionFile, "session", session.DefaultFile, "path to the saved session")
	flag.BoolVar(&showVer, "version", false, "show build version and date")
	flag.Parse()

	if showVer {
		fmt.Printf("TaskKeeper Client\nVersion: %s\nBuild Date: %s\n", version, buildDate)
		return
	}

	sh := shell.New(api.New(baseURL), session.Store{Path: sessionFile}, os.Stdin, os.Stdout)
	if err := sh.Run(context.Background()); err != nil {
		log.Fatal(err)
	}
}
