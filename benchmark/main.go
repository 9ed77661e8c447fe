// Package main benchmarks `commitmap populate` across repositories and worker counts.
// For every repository and worker count it runs a cold populate into an empty
// SQLite store, then repeats the populate against the filled store (every row
// already exists) and averages those warm runs. Results are written as CSV.
//
// Prerequisites:
// - commitmap binary installed and available in PATH
// - Test repositories cloned to the specified base directory
//
// Usage: go run benchmark/main.go [repo-base-dir] [repo...]
//
//	repo-base-dir: Directory containing test repositories
//	repo:          Repository directory names (default: csv-parser fd git)
package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"
)

// BenchmarkResult holds the timings of one repository and worker count.
type BenchmarkResult struct {
	Repository string
	Workers    int
	Files      int
	Relations  int
	ColdTime   string
	WarmTime   string
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	RepoBase  string
	Timeout   time.Duration
	Workers   []int
	WarmRuns  int
	TestRepos []string
}

// populateSummary is the subset of the JSON run summary the benchmark reads.
type populateSummary struct {
	FilesTotal    int `json:"files_total"`
	RelationsSeen int `json:"relations_seen"`
	BatchesFailed int `json:"batches_failed"`
}

func main() {
	if len(os.Args) < 2 {
		fmt.Printf("Usage: %s [repo-base-dir] [repo...]\n", os.Args[0])
		os.Exit(1)
	}

	config := BenchmarkConfig{
		RepoBase:  os.Args[1],
		Timeout:   10 * time.Minute,
		Workers:   []int{1, 4, 8, 16},
		WarmRuns:  3,
		TestRepos: []string{"csv-parser", "fd", "git"},
	}
	if len(os.Args) > 2 {
		config.TestRepos = os.Args[2:]
	}

	if err := checkPrerequisites(config); err != nil {
		fmt.Printf("Prerequisites check failed: %v\n", err)
		os.Exit(1)
	}

	storeDir, err := os.MkdirTemp("", "commitmap-benchmark-*")
	if err != nil {
		fmt.Printf("Failed to create store directory: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = os.RemoveAll(storeDir) }()

	results := runBenchmarks(config, storeDir)

	if err := saveResults(results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}

	printSummary(results)
}

// checkPrerequisites verifies that the commitmap binary and test repositories exist
func checkPrerequisites(config BenchmarkConfig) error {
	if _, err := exec.LookPath("commitmap"); err != nil {
		return fmt.Errorf("commitmap binary not found in PATH")
	}
	for _, repo := range config.TestRepos {
		repoPath := filepath.Join(config.RepoBase, repo)
		if _, err := os.Stat(repoPath); os.IsNotExist(err) {
			return fmt.Errorf("repository %s not found at %s", repo, repoPath)
		}
	}
	return nil
}

// runBenchmarks executes every repository and worker count combination
func runBenchmarks(config BenchmarkConfig, storeDir string) []BenchmarkResult {
	var results []BenchmarkResult

	fmt.Printf("Starting benchmark: %d repos, %v timeout, workers %v, %d warm runs\n",
		len(config.TestRepos), config.Timeout, config.Workers, config.WarmRuns)

	for _, repo := range config.TestRepos {
		repoPath := filepath.Join(config.RepoBase, repo)
		for _, workers := range config.Workers {
			fmt.Printf("Benchmarking %s with %d workers\n", repo, workers)
			dbPath := filepath.Join(storeDir, fmt.Sprintf("%s-%d.db", repo, workers))
			results = append(results, runBenchmarkSuite(config, repo, repoPath, dbPath, workers))
		}
	}
	return results
}

// runBenchmarkSuite runs one cold populate and the warm repeats
func runBenchmarkSuite(config BenchmarkConfig, repo, repoPath, dbPath string, workers int) BenchmarkResult {
	result := BenchmarkResult{Repository: repo, Workers: workers, ColdTime: "FAILED", WarmTime: "FAILED"}

	cold, summary, err := runPopulate(config, repoPath, dbPath, workers, true)
	if err != nil {
		fmt.Printf("  cold run failed: %v\n", err)
		return result
	}
	result.ColdTime = fmt.Sprintf("%.3fs", cold)
	result.Files = summary.FilesTotal
	result.Relations = summary.RelationsSeen

	var sum float64
	var n int
	for range config.WarmRuns {
		elapsed, _, err := runPopulate(config, repoPath, dbPath, workers, false)
		if err != nil {
			fmt.Printf("  warm run failed: %v\n", err)
			continue
		}
		sum += elapsed
		n++
	}
	if n > 0 {
		result.WarmTime = fmt.Sprintf("%.3fs", sum/float64(n))
	}

	fmt.Printf("  Files: %d, Relations: %d, Cold: %s, Warm average: %s\n",
		result.Files, result.Relations, result.ColdTime, result.WarmTime)
	return result
}

// runPopulate runs commitmap populate once and returns the elapsed seconds
func runPopulate(config BenchmarkConfig, repoPath, dbPath string, workers int, reset bool) (float64, populateSummary, error) {
	var summary populateSummary

	ctx, cancel := context.WithTimeout(context.Background(), config.Timeout)
	defer cancel()

	args := []string{
		"populate", repoPath,
		"--workers", strconv.Itoa(workers),
		"--store-backend", "sqlite",
		"--store-db-connect", dbPath,
		"--log-level", "error",
		"--output", "json",
	}
	if reset {
		args = append(args, "--reset")
	}

	start := time.Now()
	output, err := exec.CommandContext(ctx, "commitmap", args...).Output()
	elapsed := time.Since(start).Seconds()
	if ctx.Err() != nil {
		return 0, summary, errors.New("timeout")
	}
	if err != nil {
		return 0, summary, err
	}
	if err := json.Unmarshal(output, &summary); err != nil {
		return 0, summary, fmt.Errorf("unexpected output: %w", err)
	}
	if summary.BatchesFailed > 0 {
		return 0, summary, fmt.Errorf("%d batches failed", summary.BatchesFailed)
	}
	return elapsed, summary, nil
}

// saveResults writes benchmark results to a timestamped CSV file
func saveResults(results []BenchmarkResult) error {
	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("/tmp/commitmap_benchmark_%s.csv", timestamp)

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close file %s: %v\n", filename, closeErr)
		}
	}()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{"repo", "workers", "files", "relations", "cold_time", "warm_avg"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, r := range results {
		record := []string{r.Repository, strconv.Itoa(r.Workers), strconv.Itoa(r.Files), strconv.Itoa(r.Relations), r.ColdTime, r.WarmTime}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

// printSummary displays the final benchmark results summary
func printSummary(results []BenchmarkResult) {
	fmt.Printf("Benchmark complete\n")
	for _, r := range results {
		fmt.Printf("  %-12s workers=%-3d Cold: %s, Warm: %s\n", r.Repository, r.Workers, r.ColdTime, r.WarmTime)
	}
}
