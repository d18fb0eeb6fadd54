// pooler-demo runs a data-parallel summation across a pool to show the
// dispatch protocol under load. Settings come from flags or an
// optional YAML scenario file.
package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/SebOuellette/pooler"
)

var (
	workers     int
	rounds      int
	size        int
	configPath  string
	metricsAddr string
)

// Scenario is the YAML scenario file structure.
type Scenario struct {
	Workers int `yaml:"workers"`
	Rounds  int `yaml:"rounds"`
	Size    int `yaml:"size"`
}

func loadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario file: %w", err)
	}
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing scenario file: %w", err)
	}
	return &s, nil
}

var rootCmd = &cobra.Command{
	Use:   "pooler-demo",
	Short: "Chunked parallel summation on a pooler pool",
	Long: `pooler-demo splits a slice summation into per-worker chunks and
dispatches it repeatedly on a fixed-size pool, reporting per-round
timing. With --metrics-addr it also serves pool metrics for
Prometheus.`,
	SilenceUsage: true,
	RunE:         runDemo,
}

func runDemo(cmd *cobra.Command, args []string) error {
	if configPath != "" {
		s, err := loadScenario(configPath)
		if err != nil {
			return err
		}
		if s.Workers > 0 {
			workers = s.Workers
		}
		if s.Rounds > 0 {
			rounds = s.Rounds
		}
		if s.Size > 0 {
			size = s.Size
		}
	}
	if workers <= 0 {
		return fmt.Errorf("worker count must be positive, got %d", workers)
	}

	opts := pooler.Options{Workers: workers}
	if metricsAddr != "" {
		opts.Metrics = pooler.NewMetrics("demo", "pooler")
		go func() {
			http.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(metricsAddr, nil); err != nil {
				fmt.Fprintln(os.Stderr, "metrics server:", err)
			}
		}()
		fmt.Printf("Serving metrics on %s/metrics\n", metricsAddr)
	}

	data := make([]float64, size)
	for i := range data {
		data[i] = float64(i)
	}
	partial := make([]float64, workers)

	pool := pooler.NewWithOptions[[]float64](opts)
	defer pool.Stop()

	fmt.Printf("Summing %d values on %d workers, %d rounds\n", size, workers, rounds)
	for round := 0; round < rounds; round++ {
		start := time.Now()
		err := pool.RunWith(data, func(worker int, data []float64) {
			chunk := (len(data) + workers - 1) / workers
			lo := worker * chunk
			hi := min(lo+chunk, len(data))
			var sum float64
			for _, v := range data[lo:hi] {
				sum += v
			}
			partial[worker] = sum
		})
		if err != nil {
			return fmt.Errorf("round %d: %w", round, err)
		}

		var total float64
		for _, p := range partial {
			total += p
		}
		fmt.Printf("  round %2d: total=%.0f in %s\n", round, total, time.Since(start))
	}

	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().IntVar(&workers, "workers", 4, "Number of pool workers")
	rootCmd.Flags().IntVar(&rounds, "rounds", 8, "Number of dispatches to run")
	rootCmd.Flags().IntVar(&size, "size", 1<<20, "Number of values to sum")
	rootCmd.Flags().StringVar(&configPath, "config", "", "Optional YAML scenario file")
	rootCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :2112)")
}
