// Command facefind prints the faces of sketch documents.
//
//	facefind [-nested] [-workers n] [-v] sketch.json...
//
// Each file holds one sketch document. Results are written to stdout as one
// JSON object per file; the exit status is 1 when any sketch fails to solve.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/inamate/facefinder/internal/document"
	"github.com/inamate/facefinder/internal/engine"
	"github.com/inamate/facefinder/internal/sketch"
)

type fileResult struct {
	File string `json:"file"`
	engine.Result
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("facefind", flag.ContinueOnError)
	fs.SetOutput(stderr)
	nested := fs.Bool("nested", false, "also report the empty inside of every hole")
	workers := fs.Int("workers", 4, "sketches solved in parallel")
	verbose := fs.Bool("v", false, "log solver progress to stderr")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(stderr, "usage: facefind [-nested] [-workers n] [-v] sketch.json...")
		return 2
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	opts := []sketch.Option{sketch.WithLogger(logger)}
	if *nested {
		opts = append(opts, sketch.WithNestedFaces())
	}

	files := fs.Args()
	docs := make([]*document.Sketch, len(files))
	for i, name := range files {
		doc, err := readSketch(name)
		if err != nil {
			logger.Error("read sketch", "file", name, "error", err)
			return 1
		}
		docs[i] = doc
	}

	results, err := engine.SolveBatch(ctx, docs, *workers, opts...)
	if err != nil {
		logger.Error("solve", "error", err)
		return 1
	}

	enc := json.NewEncoder(stdout)
	status := 0
	for i, res := range results {
		if res.Err != nil {
			logger.Warn("no faces", "file", files[i], "error", res.Err)
			status = 1
		}
		if err := enc.Encode(fileResult{File: files[i], Result: res}); err != nil {
			logger.Error("write result", "error", err)
			return 1
		}
	}
	return status
}

func readSketch(name string) (*document.Sketch, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, err
	}
	var doc document.Sketch
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return &doc, nil
}
