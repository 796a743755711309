// Package main provides a performance benchmarking tool for the Prelev CLI.
// It generates synthetic datasets of increasing size, loads each into a scratch
// home directory and measures aggregation times, running each request several
// times, treating the first successful cached run as cold and averaging the rest
// as warm, then writes a CSV for performance analysis and documentation.
//
// Prerequisites:
// - prelev binary installed and available in PATH
//
// Usage: go run benchmark/main.go [work-dir]
//
//	work-dir: Directory where datasets and SQLite files are created
package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// BenchmarkResult holds the result of a benchmark run (no-cache average, cold run and average of warm runs).
type BenchmarkResult struct {
	Dataset     string
	Request     string
	NoCacheTime string
	ColdTime    string
	WarmTime    string
}

// DatasetSize describes one synthetic dataset.
type DatasetSize struct {
	Name   string
	Points int
	Days   int
}

// BenchmarkRequest is one aggregate invocation.
type BenchmarkRequest struct {
	Name string
	Args []string
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	WorkDir     string
	Timeout     time.Duration
	Workers     int
	NoCacheRuns int
	CacheRuns   int
	Datasets    []DatasetSize
	Requests    []BenchmarkRequest
}

func main() {
	// Parse command line arguments
	if len(os.Args) != 2 {
		fmt.Printf("Usage: %s [work-dir]\n", os.Args[0])
		os.Exit(1)
	}

	config := BenchmarkConfig{
		WorkDir:     os.Args[1],
		Timeout:     5 * time.Minute,
		Workers:     8,
		NoCacheRuns: 3,
		CacheRuns:   4,
		Datasets: []DatasetSize{
			{Name: "small", Points: 5, Days: 30},
			{Name: "medium", Points: 20, Days: 180},
			{Name: "large", Points: 50, Days: 365},
		},
		Requests: []BenchmarkRequest{
			{Name: "daily-volume", Args: []string{"--parameter", "volume prélevé", "--preleveur", "PR1", "--frequency", "1 day"}},
			{Name: "monthly-volume", Args: []string{"--parameter", "volume prélevé", "--preleveur", "PR1", "--frequency", "1 month"}},
			{Name: "daily-flow", Args: []string{"--parameter", "débit prélevé", "--preleveur", "PR1", "--frequency", "1 day"}},
			{Name: "hourly-flow", Args: []string{"--parameter", "débit prélevé", "--preleveur", "PR1", "--frequency", "1 hour"}},
		},
	}

	if err := checkPrerequisites(config); err != nil {
		fmt.Printf("Prerequisites check failed: %v\n", err)
		os.Exit(1)
	}

	results := runBenchmarks(config)

	if err := saveResults(results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}

	printSummary(config, results)
}

// checkPrerequisites verifies that the prelev binary and the work directory exist
func checkPrerequisites(config BenchmarkConfig) error {
	if _, err := exec.LookPath("prelev"); err != nil {
		return fmt.Errorf("prelev binary not found in PATH")
	}
	if err := os.MkdirAll(config.WorkDir, 0o755); err != nil {
		return fmt.Errorf("cannot create work dir %s: %w", config.WorkDir, err)
	}
	return nil
}

// runBenchmarks executes all requests against every dataset
func runBenchmarks(config BenchmarkConfig) []BenchmarkResult {
	var results []BenchmarkResult

	fmt.Printf("Starting benchmark: %d datasets, %v timeout, %d workers, no-cache: %d runs, cache: %d runs\n",
		len(config.Datasets), config.Timeout, config.Workers, config.NoCacheRuns, config.CacheRuns)

	for _, size := range config.Datasets {
		fmt.Printf("Preparing %s dataset (%d points, %d days)\n", size.Name, size.Points, size.Days)
		home, err := prepareDataset(config, size)
		if err != nil {
			fmt.Printf("  Skipping %s: %v\n", size.Name, err)
			continue
		}

		for _, req := range config.Requests {
			results = append(results, runBenchmarkSuite(config, size.Name, home, req))
		}
	}

	return results
}

// prepareDataset writes a synthetic dataset and loads it into a fresh home directory
func prepareDataset(config BenchmarkConfig, size DatasetSize) (string, error) {
	home := filepath.Join(config.WorkDir, size.Name)
	if err := os.RemoveAll(home); err != nil {
		return "", err
	}
	if err := os.MkdirAll(home, 0o755); err != nil {
		return "", err
	}

	datasetFile := filepath.Join(home, "dataset.json")
	file, err := os.Create(datasetFile)
	if err != nil {
		return "", err
	}
	if err := json.NewEncoder(file).Encode(syntheticDataset(size)); err != nil {
		_ = file.Close()
		return "", err
	}
	if err := file.Close(); err != nil {
		return "", err
	}

	cmd := exec.Command("prelev", "load", datasetFile)
	cmd.Env = append(os.Environ(), "HOME="+home)
	if output, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("load failed: %w\nOutput: %s", err, string(output))
	}
	return home, nil
}

// syntheticDataset builds one daily volume series and one 15 minute flow series per point.
func syntheticDataset(size DatasetSize) map[string]any {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	points := make([]string, size.Points)
	var series []map[string]any

	for p := range size.Points {
		point := fmt.Sprintf("P%d", p+1)
		points[p] = point

		volumes := make([]map[string]any, size.Days)
		flows := make([]map[string]any, size.Days)
		for d := range size.Days {
			date := start.AddDate(0, 0, d).Format("2006-01-02")
			volumes[d] = map[string]any{"date": date, "values": map[string]any{"value": float64(100 + (p*7+d)%50)}}

			samples := make([]map[string]any, 96)
			for q := range samples {
				samples[q] = map[string]any{
					"time":  fmt.Sprintf("%02d:%02d:00", q/4, (q%4)*15),
					"value": float64((p+d+q)%20) / 2,
				}
			}
			flows[d] = map[string]any{"date": date, "values": samples}
		}

		series = append(series,
			map[string]any{"id": point + "-V", "point": point, "parameter": "volume prélevé", "frequency": "1 day", "documents": volumes},
			map[string]any{"id": point + "-Q", "point": point, "parameter": "débit prélevé", "frequency": "15 minutes", "documents": flows},
		)
	}

	return map[string]any{
		"preleveurs": []map[string]any{{"id": "PR1", "points": points}},
		"series":     series,
	}
}

// runBenchmarkSuite runs both no-cache and cache benchmarks for a request
func runBenchmarkSuite(config BenchmarkConfig, dataset, home string, req BenchmarkRequest) BenchmarkResult {
	fmt.Printf("Running %s on %s\n", req.Name, dataset)

	// Helper to run a benchmark phase
	runPhase := func(cacheBackend string, numRuns int, phaseName string) (coldTime float64, avgTime string) {
		fmt.Printf("  %s phase (%d runs)\n", phaseName, numRuns)
		cold, times := runBenchmark(config, home, req.Args, cacheBackend, numRuns)
		if len(times) == 0 {
			avgTime = "TIMEOUT"
		} else {
			var sum float64
			for _, t := range times {
				sum += t
			}
			avg := sum / float64(len(times))
			avgTime = fmt.Sprintf("%.3fs", avg)
		}
		return cold, avgTime
	}

	// Phase 1: No-cache runs
	_, noCacheAvg := runPhase("none", config.NoCacheRuns, "No-cache")

	// Phase 2: Cache runs, starting from an empty cache
	clearCache(home)
	coldTime, warmAvg := runPhase("sqlite", config.CacheRuns, "Cache")

	coldTimeStr := "TIMEOUT"
	if coldTime > 0 {
		coldTimeStr = fmt.Sprintf("%.3fs", coldTime)
	}

	fmt.Printf("  No-cache average: %s, Cold time: %s, Warm average: %s\n", noCacheAvg, coldTimeStr, warmAvg)

	return BenchmarkResult{
		Dataset:     dataset,
		Request:     req.Name,
		NoCacheTime: noCacheAvg,
		ColdTime:    coldTimeStr,
		WarmTime:    warmAvg,
	}
}

// clearCache removes cached results of a dataset home
func clearCache(home string) {
	cmd := exec.Command("prelev", "cache", "clear")
	cmd.Env = append(os.Environ(), "HOME="+home)
	if output, err := cmd.CombinedOutput(); err != nil {
		fmt.Printf("Warning: failed to clear cache: %v\nOutput: %s\n", err, string(output))
	}
}

// runBenchmark executes an aggregate request multiple times with specified cache backend and returns cold time and warm times
func runBenchmark(config BenchmarkConfig, home string, reqArgs []string, cacheBackend string, numRuns int) (coldTime float64, warmTimes []float64) {
	args := append([]string{"aggregate", "--cache-backend", cacheBackend, "--workers", fmt.Sprint(config.Workers)}, reqArgs...)

	var times []float64
	for run := 1; run <= numRuns; run++ {
		start := time.Now()

		cmd := exec.Command("prelev", args...)
		cmd.Env = append(os.Environ(), "HOME="+home)

		done := make(chan bool)
		var output []byte
		var cmdErr error

		go func() {
			output, cmdErr = cmd.CombinedOutput()
			done <- true
		}()

		select {
		case <-done:
			if cmdErr == nil && isSuccess(output) {
				times = append(times, time.Since(start).Seconds())
			}
		case <-time.After(config.Timeout):
			// Timeout - don't add to times
			_ = cmd.Process.Kill()
		}
	}

	if len(times) > 0 {
		coldTime = times[0]
		warmTimes = times[1:]
	}
	return
}

// isSuccess checks if command output indicates successful completion
func isSuccess(output []byte) bool {
	outputStr := string(output)
	return strings.Contains(outputStr, "Aggregation completed in") &&
		strings.Contains(outputStr, "workers")
}

// saveResults writes benchmark results to a timestamped CSV file
func saveResults(results []BenchmarkResult) error {
	timestamp := time.Now().Format("20060102_150405")
	filename := filepath.Join(os.TempDir(), fmt.Sprintf("prelev_benchmark_%s.csv", timestamp))

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

	// Write header
	if err := writer.Write([]string{"dataset", "request", "no_cache_avg", "cold_time", "warm_avg"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	// Write results
	for _, result := range results {
		if err := writer.Write([]string{result.Dataset, result.Request, result.NoCacheTime, result.ColdTime, result.WarmTime}); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

// printSummary displays the final benchmark results summary
func printSummary(config BenchmarkConfig, results []BenchmarkResult) {
	fmt.Printf("Benchmark complete\n")

	for _, req := range config.Requests {
		fmt.Printf("%s:\n", req.Name)
		for _, result := range results {
			if result.Request == req.Name {
				fmt.Printf("  %-8s: No-cache: %s, Cold: %s, Warm: %s\n", result.Dataset, result.NoCacheTime, result.ColdTime, result.WarmTime)
			}
		}
	}

	fmt.Printf("Benchmark script completed successfully\n")
}
