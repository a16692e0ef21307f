// Command tysketch drives the constraint-generation and sketch-building
// pipeline over a single fixture file. Subcommands are dispatched by hand
// over os.Args.
package main

import (
	"fmt"
	"log"
	"net"
	"os"
	"sort"
	"strings"

	"github.com/mattn/go-isatty"
	"google.golang.org/grpc"

	"github.com/typesketch/tysketch/internal/config"
	"github.com/typesketch/tysketch/internal/pipeline"
	"github.com/typesketch/tysketch/internal/rpc"
	"github.com/typesketch/tysketch/internal/sketchviz"
	"github.com/typesketch/tysketch/internal/store"
	"github.com/typesketch/tysketch/internal/wire"
)

func main() {
	log.SetFlags(0)
	log.SetOutput(os.Stderr)

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "build":
		runBuild(os.Args[2:])
	case "serve":
		runServe(os.Args[2:])
	case "version", "--version":
		fmt.Println("tysketch " + config.Version)
	case "-h", "--help", "help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "tysketch: unknown command %q\n", os.Args[1])
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: tysketch build <fixture.yaml|fixture.json|fixture.bits> [-color]")
	fmt.Fprintln(os.Stderr, "       tysketch serve :PORT [cache.db]")
	fmt.Fprintln(os.Stderr, "       tysketch version")
}

func runBuild(args []string) {
	if len(args) < 1 {
		usage()
		os.Exit(2)
	}
	path := args[0]
	if !config.HasFixtureExt(path) {
		log.Fatalf("tysketch: %s: not a recognized fixture file (want one of %s)", path, strings.Join(config.FixtureFileExtensions, " "))
	}
	color := false
	for _, a := range args[1:] {
		if a == "-color" {
			color = true
		}
	}
	if !colorRequested(color) {
		color = false
	}

	if config.IsBitsFixture(path) {
		data, err := os.ReadFile(path)
		if err != nil {
			log.Fatalf("tysketch: read %s: %v", path, err)
		}
		accesses, err := wire.Decode(data)
		if err != nil {
			log.Fatalf("tysketch: decode %s: %v", path, err)
		}
		log.Printf("tysketch: %s carries %d point-to accesses (informational only; build still needs a YAML/JSON fixture for the IR itself)", path, len(accesses))
		os.Exit(0)
	}

	pctx := pipeline.NewContext(path)
	result := pipeline.Default().Run(pctx)
	if result.Err != nil {
		log.Fatalf("tysketch: %v", result.Err)
	}
	for _, w := range result.Warnings {
		log.Println(w.Error())
	}

	var tids []string
	for tid := range result.Result.Sketches {
		tids = append(tids, tid)
	}
	sort.Strings(tids)

	for _, tid := range tids {
		dot := sketchviz.Graphviz(result.Result.Sketches[tid])
		if color {
			dot = colorize(dot)
		}
		fmt.Printf("// %s\n%s\n", tid, dot)
	}
}

// colorRequested honors an explicit -color flag only when stdout is
// actually a terminal.
func colorRequested(flagSet bool) bool {
	return flagSet && isatty.IsTerminal(os.Stdout.Fd())
}

// colorize wraps each node's [lower,upper] bounds annotation in an ANSI
// cyan escape so it stands out against the rest of the DOT source.
func colorize(dot string) string {
	const (
		cyan = "\x1b[36m"
		rst  = "\x1b[0m"
	)
	var out strings.Builder
	for _, line := range strings.Split(dot, "\n") {
		start := strings.Index(line, "[")
		end := strings.LastIndex(line, "]")
		if start >= 0 && end > start {
			out.WriteString(line[:start])
			out.WriteString(cyan)
			out.WriteString(line[start : end+1])
			out.WriteString(rst)
			out.WriteString(line[end+1:])
		} else {
			out.WriteString(line)
		}
		out.WriteString("\n")
	}
	return strings.TrimSuffix(out.String(), "\n")
}

func runServe(args []string) {
	if len(args) < 1 {
		usage()
		os.Exit(2)
	}
	addr := args[0]
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		log.Fatalf("tysketch: listen %s: %v", addr, err)
	}

	srv := rpc.NewServer(log.Default())
	if len(args) >= 2 {
		cache, err := store.Open(args[1])
		if err != nil {
			log.Fatalf("tysketch: %v", err)
		}
		defer cache.Close()
		srv.Cache = cache
	}

	s := grpc.NewServer()
	rpc.RegisterSketchServiceServer(s, srv)

	log.Printf("tysketch: serving SketchService on %s", addr)
	if err := s.Serve(lis); err != nil {
		log.Fatalf("tysketch: serve: %v", err)
	}
}
