/*
Client runs a small service that forwards the requests it receives to an
upstream server, using an http client instrumented with the http client
metrics.

Usage:

	client [flags]

The flags are:

	-p [port_number]
	    To select the port number where we want to run the service

	-u [upstream_url]
	    The base url of the upstream server

	-l [log_level]
	    The logging level (DEBUG, INFO, WARNING, ERROR, CRITICAL)

	-c [config_file]
	    To select the config file to use.
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/luraproject/lura/v2/config"
	"github.com/luraproject/lura/v2/logging"
	"go.opentelemetry.io/otel/metric"

	kmetrics "github.com/krakend/krakend-httpclient-metrics"
	clienthttp "github.com/krakend/krakend-httpclient-metrics/http/client"
	"github.com/krakend/krakend-httpclient-metrics/state"
)

func main() {
	port := flag.Int("p", 8080, "Port of the service")
	upstream := flag.String("u", "http://localhost:8000", "Base url of the upstream server")
	logLevel := flag.String("l", "ERROR", "Logging level")
	configFile := flag.String("c", "/etc/krakend/configuration.json", "Path to the configuration filename")
	flag.Parse()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		select {
		case sig := <-sigs:
			log.Println("Signal intercepted:", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	parser := config.NewParser()
	serviceConfig, err := parser.Parse(*configFile)
	if err != nil {
		fmt.Printf("ERROR: %s\n", err.Error())
		return
	}

	logger, err := logging.NewLogger(*logLevel, os.Stdout, "[KRAKEND]")
	if err != nil {
		fmt.Printf("ERROR: %s\n", err.Error())
		return
	}

	shutdownFn, err := kmetrics.Register(ctx, logger, serviceConfig)
	if err != nil {
		fmt.Printf("--- failed to register: %s\n", err.Error())
		return
	}
	defer shutdownFn()

	opts := &clienthttp.Options{}
	if cfg := state.GlobalConfig(); cfg != nil {
		opts, err = clienthttp.OptionsFromConfig(cfg.ClientOpts())
		if err != nil {
			fmt.Printf("ERROR: bad client metrics config: %s\n", err.Error())
			return
		}
	}
	opts.Logger = logger

	// without a registered state, the global meter provider is used
	var meter metric.Meter
	if s := state.GlobalState(); s != nil {
		meter = s.Meter()
	}
	upstreamClient := clienthttp.InstrumentedHTTPClient(&http.Client{Timeout: 5 * time.Second}, meter, opts)

	engine := gin.Default()
	engine.ContextWithFallback = true
	engine.Any("/forward/*path", forwardHandler(upstreamClient, *upstream, logger))

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", *port),
		Handler:           engine,
		ReadHeaderTimeout: 3 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		server.Shutdown(shutdownCtx)
		shutdownCancel()
	}()

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		logger.Error("[SERVICE: HTTP Client Metrics]", err.Error())
	}
}

func forwardHandler(c *http.Client, upstream string, logger logging.Logger) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		target := upstream + ctx.Param("path")
		if q := ctx.Request.URL.RawQuery; q != "" {
			target += "?" + q
		}
		req, err := http.NewRequestWithContext(ctx, ctx.Request.Method, target, ctx.Request.Body)
		if err != nil {
			ctx.AbortWithStatus(http.StatusBadRequest)
			return
		}
		req.ContentLength = ctx.Request.ContentLength
		req.Header = ctx.Request.Header.Clone()

		resp, err := c.Do(req)
		if err != nil {
			logger.Warning("[SERVICE: HTTP Client Metrics]", "upstream request failed:", err.Error())
			ctx.AbortWithStatus(http.StatusBadGateway)
			return
		}
		defer resp.Body.Close()

		ctx.DataFromReader(resp.StatusCode, resp.ContentLength, resp.Header.Get("Content-Type"),
			resp.Body, nil)
	}
}
