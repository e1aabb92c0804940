// Command analyze estimates body fat for image files given on the command
// line and prints one JSON line per file, in argument order.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"go-body-analyzer/internal/config"
	"go-body-analyzer/internal/container"
	"go-body-analyzer/internal/logger"
	"go-body-analyzer/internal/service"

	"golang.org/x/sync/errgroup"
)

// fileResult is one output line. Exactly one of Result and Error is set.
type fileResult struct {
	File   string      `json:"file"`
	Result interface{} `json:"result,omitempty"`
	Error  string      `json:"error,omitempty"`
}

func main() {
	var (
		workers = flag.Int("workers", 4, "number of files analyzed concurrently")
		detail  = flag.Bool("detail", false, "include the analysis breakdown")
	)
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: analyze [-workers N] [-detail] image.jpg [image.png ...]")
		os.Exit(2)
	}
	os.Exit(run(flag.Args(), *workers, *detail))
}

func run(paths []string, workers int, detail bool) int {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		return 1
	}

	c, err := container.NewContainer(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize: %v\n", err)
		return 1
	}
	defer c.Close()

	// keep stdout for results
	logger.Logger.SetOutput(os.Stderr)

	results := analyzeFiles(context.Background(), c.Service(), paths, workers, detail)
	if err := writeResults(os.Stdout, results); err != nil {
		logger.WithError(err).Error("Failed to write results")
		return 1
	}

	for _, r := range results {
		if r.Error != "" {
			return 1
		}
	}
	return 0
}

// analyzeFiles runs at most workers analyses at a time. A failing file is
// reported in its line and does not stop the others.
func analyzeFiles(ctx context.Context, svc service.BodyAnalysisService, paths []string, workers int, detail bool) []fileResult {
	results := make([]fileResult, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}

	for i, path := range paths {
		g.Go(func() error {
			results[i] = analyzeFile(ctx, svc, path, detail)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func analyzeFile(ctx context.Context, svc service.BodyAnalysisService, path string, detail bool) fileResult {
	out := fileResult{File: path}

	data, err := os.ReadFile(path)
	if err != nil {
		out.Error = err.Error()
		return out
	}

	ctx = service.WithRequestID(ctx, filepath.Base(path))
	contentType := contentTypeFor(path)
	if detail {
		res, err := svc.AnalyzeDetailed(ctx, data, contentType)
		if err != nil {
			out.Error = err.Error()
			return out
		}
		out.Result = res
		return out
	}

	res, err := svc.Analyze(ctx, data, contentType)
	if err != nil {
		out.Error = err.Error()
		return out
	}
	out.Result = res
	return out
}

// contentTypeFor maps the file extension to the type an upload would declare
func contentTypeFor(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".jpg" || ext == ".jpeg" {
		return "image/jpeg"
	}
	if t := mime.TypeByExtension(ext); t != "" {
		return t
	}
	return "application/octet-stream"
}

func writeResults(w io.Writer, results []fileResult) error {
	enc := json.NewEncoder(w)
	for _, r := range results {
		if err := enc.Encode(r); err != nil {
			return err
		}
	}
	return nil
}
