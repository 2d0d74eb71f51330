package api

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/go-zoo/bone"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"

	"github.com/deephdc/demoapp/config"
	"github.com/deephdc/demoapp/metadata"
	"github.com/deephdc/demoapp/metrics"
	"github.com/deephdc/demoapp/trainer"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Server holds what the handlers need.
type Server struct {
	config   *config.Config
	metadata *metadata.Metadata
	trainer  *trainer.Manager
	metrics  *metrics.Metrics
	mux      *bone.Mux
}

// New builds the server and its routes.
func New(c *config.Config, t *trainer.Manager, m *metrics.Metrics) (*Server, error) {
	meta, err := metadata.Get(c.Model)
	if err != nil {
		return nil, err
	}
	s := &Server{
		config:   c,
		metadata: meta,
		trainer:  t,
		metrics:  m,
		mux:      bone.New(),
	}

	s.mux.Get("/v2", s.operation("get_versions", s.getVersions))
	s.mux.Get("/v2/models", s.operation("list_models", s.listModels))
	s.mux.Get("/v2/models/:name", s.operation("get_metadata", s.getMetadata))
	s.mux.Post("/v2/models/:name/predict", s.operation("predict", s.predict))
	s.mux.Post("/v2/models/:name/train", s.operation("train", s.startTraining))
	s.mux.Get("/v2/models/:name/train", s.operation("list_trainings", s.listTrainings))
	s.mux.Get("/v2/models/:name/train/:uuid", s.operation("get_training", s.getTraining))
	s.mux.Delete("/v2/models/:name/train/:uuid", s.operation("cancel_training", s.cancelTraining))

	return s, nil
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Serve serves the API on address until ctx is done.
func (s *Server) Serve(ctx context.Context, address string) error {
	l, err := net.Listen("tcp", address)
	if err != nil {
		return err
	}
	return s.serve(ctx, l)
}

func (s *Server) serve(ctx context.Context, l net.Listener) error {
	srv := &http.Server{
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logrus.Warnf("Error shutting down API server: %v", err)
		}
	}()
	logrus.Infof("Serving API on %s", l.Addr())
	if err := srv.Serve(l); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
