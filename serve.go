package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/godeepar/tsgeojson/config"
	"github.com/godeepar/tsgeojson/convert"
	"github.com/godeepar/tsgeojson/source"
)

const (
	listeningPort = "8000"
	maxUpload     = 64 << 20
)

type serveFlags struct {
	addr          string
	statsFile     string
	statsInterval time.Duration
}

func newServeCmd(a *app) *cobra.Command {
	f := &serveFlags{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Convert uploaded records to GeoJSON over HTTP",
		Long: `Starts an HTTP server. POST /export takes a multipart form with the
records in the "file" part and a YAML export job in the "job" field, and
answers with the GeoJSON document.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), a, f)
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.addr, "addr", ":"+listeningPort, "listen address")
	fl.StringVar(&f.statsFile, "stats-file", "", "file keeping request counts across restarts")
	fl.DurationVar(&f.statsInterval, "stats-interval", 10*time.Minute, "how often request counts are saved")

	return cmd
}

// server answers export requests. One Metrics is shared by every request.
type server struct {
	log      logrus.FieldLogger
	registry *prometheus.Registry
	metrics  *convert.Metrics
	counts   *counter
}

func newServer(log logrus.FieldLogger) *server {
	reg := prometheus.NewRegistry()
	return &server{
		log:      log,
		registry: reg,
		metrics:  convert.NewMetrics(reg),
		counts:   newCounter(),
	}
}

func (s *server) router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())
	r.MaxMultipartMemory = maxUpload

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/stats", s.statsHandler)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))
	r.POST("/export", s.exportHandler)
	return r
}

func (s *server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
			"status": c.Writer.Status(),
			"ms":     time.Since(start).Milliseconds(),
		}).Debug("request")
	}
}

func (s *server) statsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, s.counts.Snapshot())
}

func (s *server) exportHandler(c *gin.Context) {
	job, err := config.Parse([]byte(c.PostForm("job")))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := job.ValidateExport(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	upload, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing records file: " + err.Error()})
		return
	}

	srcOpts := job.SourceOptions()
	if srcOpts.Format == "" {
		if srcOpts.Format, err = source.DetectFormat(upload.Filename); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	format := srcOpts.Format

	file, err := upload.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer file.Close()

	records, err := source.Read(file, srcOpts)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	count := s.counts.Incr(string(format))

	opts := job.ExportOptions()
	opts.OutputFile = ""
	opts.Logger = s.log.WithField("upload", upload.Filename)
	opts.Metrics = s.metrics

	exporter, err := convert.NewExporter(opts)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var buf bytes.Buffer
	res, err := exporter.Export(&buf, records)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	contentType := "application/geo+json"
	if job.Output.JavaScriptVar != "" {
		contentType = "application/javascript"
	}
	c.Header("X-Features-Written", strconv.Itoa(res.FeaturesWritten))
	c.Header("X-Records-Skipped", strconv.Itoa(res.RecordsSkipped))
	c.Header("X-Export-Problems", strconv.Itoa(len(res.Errors)))
	c.Data(http.StatusOK, contentType, buf.Bytes())

	s.log.WithField("format", format).Infof("%s export count %d", format, count)
}

func (f *serveFlags) validate() error {
	if f.statsInterval <= 0 {
		return fmt.Errorf("--stats-interval must be positive, got %s", f.statsInterval)
	}
	return nil
}

func runServe(ctx context.Context, a *app, f *serveFlags) error {
	if err := f.validate(); err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if a.log.IsLevelEnabled(logrus.DebugLevel) {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	s := newServer(a.log)
	saved := make(chan struct{})
	if f.statsFile != "" {
		if err := s.counts.readCount(f.statsFile); err != nil {
			a.log.WithError(err).Warn("Non fatal: could not read saved request counts, starting from zero")
		}
		go func() {
			defer close(saved)
			s.counts.persist(ctx, f.statsFile, f.statsInterval, a.log)
		}()
	} else {
		close(saved)
	}

	srv := &http.Server{
		Addr:              f.addr,
		Handler:           s.router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		a.log.Info("Listening on " + f.addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
		a.log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		<-saved
		return err
	}
}
