package main

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/alnah/go-postrender"
	"github.com/alnah/go-postrender/internal/fileutil"
)

// File permission constants.
const (
	dirPermissions  = 0o750 // rwxr-x---: owner full, group read+execute
	filePermissions = 0o644 // rw-r--r--: owner read+write, others read
)

// Sentinel errors for batch operations.
var (
	ErrNoInput   = errors.New("no input specified")
	ErrNoPages   = errors.New("no HTML pages found")
	ErrReadHTML  = errors.New("failed to read HTML file")
	ErrWriteHTML = errors.New("failed to write HTML file")
)

// PageEnhancer is the interface for the enhancement service.
type PageEnhancer interface {
	Enhance(ctx context.Context, input postrender.Input) (*postrender.Result, error)
}

// Compile-time interface implementation check.
var _ PageEnhancer = (*postrender.Enhancer)(nil)

// Pool abstracts enhancer pool operations for testability.
type Pool interface {
	Acquire() (PageEnhancer, error)
	Release(PageEnhancer)
	Size() int
}

// EnhanceResult holds the outcome of a single page.
type EnhanceResult struct {
	InputPath  string
	OutputPath string
	Report     postrender.Report
	Err        error
	Duration   time.Duration
}

// batchParams groups parameters shared by every page of a batch.
type batchParams struct {
	baseURL *url.URL // site root the input directory is served from
	log     *zap.Logger
}

// enhanceBatch processes files concurrently using the enhancer pool.
// Results keep the order of files.
func enhanceBatch(ctx context.Context, pool Pool, files []FileToEnhance, params *batchParams) []EnhanceResult {
	if len(files) == 0 {
		return nil
	}

	concurrency := min(pool.Size(), len(files))

	results := make([]EnhanceResult, len(files))
	var wg sync.WaitGroup
	jobs := make(chan int, len(files))

	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			enh, err := pool.Acquire()
			if err != nil {
				// Enhancer creation failed, mark this worker's jobs as failed
				for idx := range jobs {
					results[idx] = EnhanceResult{InputPath: files[idx].InputPath, Err: err}
				}
				return
			}
			defer pool.Release(enh)

			for idx := range jobs {
				if ctx.Err() != nil {
					results[idx] = EnhanceResult{InputPath: files[idx].InputPath, Err: ctx.Err()}
					continue
				}
				results[idx] = enhanceFile(ctx, enh, files[idx], params)
			}
		}()
	}

	for i := range files {
		jobs <- i
	}
	close(jobs)

	wg.Wait()
	return results
}

// enhanceFile processes a single page and returns the result.
func enhanceFile(ctx context.Context, enh PageEnhancer, f FileToEnhance, params *batchParams) EnhanceResult {
	start := time.Now()
	result := EnhanceResult{
		InputPath:  f.InputPath,
		OutputPath: f.OutputPath,
	}
	done := func(err error) EnhanceResult {
		result.Err = err
		result.Duration = time.Since(start)
		return result
	}

	content, err := os.ReadFile(f.InputPath) // #nosec G304 -- discovered path
	if err != nil {
		return done(fmt.Errorf("%w: %w", ErrReadHTML, err))
	}

	res, err := enh.Enhance(ctx, postrender.Input{
		HTML:    string(content),
		BaseURL: pageURL(params.baseURL, f.RelPath),
	})
	if err != nil {
		return done(err)
	}
	result.Report = res.Report

	if rerr := res.Report.Err(); rerr != nil && params.log != nil {
		params.log.Warn("enhancement failures", zap.String("page", f.InputPath), zap.Error(rerr))
	}

	if err := os.MkdirAll(filepath.Dir(f.OutputPath), dirPermissions); err != nil {
		return done(fmt.Errorf("%w: creating output directory: %w", ErrWriteHTML, err))
	}
	if err := fileutil.WriteFileAtomic(f.OutputPath, res.HTML, filePermissions); err != nil {
		return done(fmt.Errorf("%w: %w", ErrWriteHTML, err))
	}

	return done(nil)
}

// pageURL returns the URL a page is served from below base.
// index pages are served from their directory.
func pageURL(base *url.URL, relPath string) string {
	if base == nil {
		return ""
	}

	rel := relPath
	if name := path.Base(rel); strings.TrimSuffix(name, path.Ext(name)) == "index" {
		rel = strings.TrimSuffix(rel, name)
	}

	ref := &url.URL{Path: rel}
	return base.ResolveReference(ref).String()
}

// ResultSummary holds the count of succeeded and failed pages.
type ResultSummary struct {
	Succeeded int
	Failed    int
}

// countResults tallies succeeded and failed pages.
func countResults(results []EnhanceResult) ResultSummary {
	var summary ResultSummary
	for _, r := range results {
		if r.Err != nil {
			summary.Failed++
		} else {
			summary.Succeeded++
		}
	}
	return summary
}

// firstError returns the first page error, in file order.
func firstError(results []EnhanceResult) error {
	for _, r := range results {
		if r.Err != nil {
			return r.Err
		}
	}
	return nil
}

// printResults outputs page results and returns the failure count.
func printResults(results []EnhanceResult, quiet, verbose bool, env *Environment) int {
	summary := countResults(results)

	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(env.Stderr, "FAILED %s: %v\n", r.InputPath, r.Err)
			continue
		}

		if quiet {
			continue
		}

		if verbose {
			fmt.Fprintf(env.Stdout, "%s -> %s (%v) [%s]\n",
				r.InputPath, r.OutputPath, r.Duration.Round(time.Millisecond), appliedNames(r.Report))
		} else {
			fmt.Fprintf(env.Stdout, "Enhanced %s\n", r.OutputPath)
		}
	}

	if !quiet && len(results) > 1 {
		fmt.Fprintf(env.Stdout, "\n%d succeeded, %d failed\n", summary.Succeeded, summary.Failed)
	}

	return summary.Failed
}

// appliedNames lists the enhancements that changed the page.
func appliedNames(r postrender.Report) string {
	var names []string
	for _, o := range r.Outcomes {
		if o.Applied {
			names = append(names, o.Name)
		}
	}
	if len(names) == 0 {
		return "unchanged"
	}
	return strings.Join(names, ", ")
}
