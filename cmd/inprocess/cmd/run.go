// Licensed to the Apache Software Foundation (ASF) under one or more
// contributor license agreements.  See the NOTICE file distributed with
// this work for additional information regarding copyright ownership.
// The ASF licenses this file to You under the Apache License, Version 2.0
// (the "License"); you may not use this file except in compliance with
// the License.  You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/KobeFeng/DataflowJavaSDK/pkg/beam/core/metrics"
	"github.com/KobeFeng/DataflowJavaSDK/pkg/beam/runners/inprocess"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

var (
	configPath  string
	variant     string
	elements    int
	offset      int
	logLevel    string
	logKind     string
	metricsAddr string

	cfg inprocess.Config

	runCmd = &cobra.Command{
		Use:     "run",
		Short:   "Run the side input demonstration pipeline",
		PreRunE: runPreE,
		RunE:    runE,
	}
)

func init() {
	runCmd.Flags().StringVar(&configPath, "config", "", "YAML runner configuration file")
	runCmd.Flags().StringVar(&variant, "variant", "", "configuration variant, the file's default if empty")
	runCmd.Flags().IntVar(&elements, "elements", 10, "number of input elements")
	runCmd.Flags().IntVar(&offset, "offset", 100, "side input value added to elements of the global window")
	runCmd.Flags().StringVar(&logLevel, "log_level", "", "log level (debug, info, warn, error), overrides the configuration")
	runCmd.Flags().StringVar(&logKind, "log_kind", "", "log format (dev, json, text), overrides the configuration")
	runCmd.Flags().StringVar(&metricsAddr, "metrics_addr", "", "address to serve Prometheus metrics on, until interrupted")
}

func runPreE(_ *cobra.Command, _ []string) error {
	if elements < 0 {
		return errors.New("--elements must not be negative")
	}
	if configPath != "" {
		c, err := inprocess.LoadConfig(configPath, variant)
		if err != nil {
			return err
		}
		cfg = c
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if logKind != "" {
		cfg.Log.Kind = logKind
	}
	return inprocess.ConfigureLogging(os.Stderr, cfg.Log.Level, cfg.Log.Kind)
}

func runE(cmd *cobra.Command, _ []string) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer cancel()

	store := metrics.NewStore()
	var srv *http.Server
	if metricsAddr != "" {
		srv = serveMetrics(metricsAddr, store)
		defer srv.Close()
	}

	res, err := demo{elements: elements, offset: offset}.run(ctx, cfg, inprocess.WithMetricsStore(store))
	if err != nil {
		return err
	}
	res.print(cmd.OutOrStdout())

	if srv == nil {
		return nil
	}
	slog.Info("pipeline done, serving metrics until interrupted", slog.String("addr", metricsAddr))
	<-ctx.Done()
	shutdown, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	return srv.Shutdown(shutdown)
}

func serveMetrics(addr string, store *metrics.Store) *http.Server {
	reg := prometheus.NewRegistry()
	reg.MustRegister(metrics.NewCollector("inprocess", store))
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 15 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server failed", slog.String("addr", addr), slog.Any("error", err))
		}
	}()
	slog.Info("serving metrics", slog.String("addr", addr))
	return srv
}
