package api

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-zoo/bone"
	"github.com/google/uuid"

	"github.com/deephdc/demoapp/hostinfo"
	"github.com/deephdc/demoapp/log"
	"github.com/deephdc/demoapp/model"
	"github.com/deephdc/demoapp/store"
	"github.com/deephdc/demoapp/version"
)

type handlerFunc func(w http.ResponseWriter, r *http.Request) error

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// operation wraps a handler with a request scoped log context, metrics and
// the translation of its error into a response.
func (s *Server) operation(name string, fn handlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		ctx := log.WithID(req.Context(), uuid.NewString(), name)
		req = req.WithContext(ctx)
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		s.metrics.OperationsInc(name)
		if err := fn(rec, req); err != nil {
			s.metrics.OperationsErrorsInc(name)
			code := writeError(rec, err)
			log.Warnf(ctx, "Request failed with %d: %v", code, err)
		}
		s.metrics.OperationsLatencyObserve(name, start)

		log.WithFields(ctx, map[string]interface{}{
			"method":   req.Method,
			"path":     req.URL.Path,
			"status":   rec.status,
			"duration": time.Since(start).String(),
		}).Debug("Request handled")
	})
}

func (s *Server) checkModel(req *http.Request) error {
	if name := bone.GetValue(req, "name"); name != s.metadata.Name {
		return notFound("model %q not found", name)
	}
	return nil
}

func (s *Server) getVersions(w http.ResponseWriter, req *http.Request) error {
	writeResp(w, map[string]interface{}{
		"versions": []map[string]interface{}{{
			"id":     "v2",
			"status": "stable",
			"links":  []map[string]string{{"rel": "self", "href": "/v2"}},
		}},
		"version": version.String(),
		"host":    hostinfo.Get(),
	}, http.StatusOK)
	return nil
}

func (s *Server) listModels(w http.ResponseWriter, req *http.Request) error {
	writeResp(w, map[string]interface{}{
		"models": []interface{}{s.metadata},
	}, http.StatusOK)
	return nil
}

func (s *Server) getMetadata(w http.ResponseWriter, req *http.Request) error {
	if err := s.checkModel(req); err != nil {
		return err
	}
	writeResp(w, s.metadata, http.StatusOK)
	return nil
}

func (s *Server) predict(w http.ResponseWriter, req *http.Request) error {
	if err := s.checkModel(req); err != nil {
		return err
	}
	req.Body = http.MaxBytesReader(w, req.Body, int64(s.config.API.MaxUploadSize))

	form, err := readForm(req)
	if err != nil {
		return err
	}
	defer form.Close()

	if _, ok := form.values["accept"]; !ok {
		f, _ := model.PredictArgs().Field("accept")
		if accept := acceptHeader(req, f.Choices); accept != "" {
			form.values.Set("accept", accept)
		}
	}

	args, err := model.PredictArgs().Parse(form.values, form.files)
	if err != nil {
		return err
	}
	res, err := model.Predict(req.Context(), args)
	if err != nil {
		return err
	}
	if res.Body == nil {
		writeResp(w, res.Fields, http.StatusOK)
		return nil
	}
	defer res.Body.Close()

	w.Header().Set("Content-Type", res.ContentType)
	if res.Filename != "" {
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", res.Filename))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, res.Body); err != nil {
		log.Warnf(req.Context(), "Unable to stream prediction: %v", err)
	}
	return nil
}

func (s *Server) startTraining(w http.ResponseWriter, req *http.Request) error {
	if err := s.checkModel(req); err != nil {
		return err
	}
	req.Body = http.MaxBytesReader(w, req.Body, int64(s.config.API.MaxUploadSize))
	form, err := readForm(req)
	if err != nil {
		return err
	}
	defer form.Close()

	args, err := model.TrainArgs().Parse(form.values, nil)
	if err != nil {
		return err
	}
	run, err := s.trainer.Start(req.Context(), args)
	if err != nil {
		return err
	}
	writeResp(w, run, http.StatusOK)
	return nil
}

func (s *Server) listTrainings(w http.ResponseWriter, req *http.Request) error {
	if err := s.checkModel(req); err != nil {
		return err
	}
	runs, err := s.trainer.List()
	if err != nil {
		return err
	}
	if runs == nil {
		runs = []*store.Training{}
	}
	writeResp(w, runs, http.StatusOK)
	return nil
}

func (s *Server) getTraining(w http.ResponseWriter, req *http.Request) error {
	if err := s.checkModel(req); err != nil {
		return err
	}
	run, err := s.trainer.Get(bone.GetValue(req, "uuid"))
	if err != nil {
		return err
	}
	writeResp(w, run, http.StatusOK)
	return nil
}

func (s *Server) cancelTraining(w http.ResponseWriter, req *http.Request) error {
	if err := s.checkModel(req); err != nil {
		return err
	}
	run, err := s.trainer.Cancel(bone.GetValue(req, "uuid"))
	if err != nil {
		return err
	}
	writeResp(w, run, http.StatusOK)
	return nil
}

// acceptHeader picks the first media type of the Accept header that is one
// of choices.
func acceptHeader(req *http.Request, choices []string) string {
	for _, part := range strings.Split(req.Header.Get("Accept"), ",") {
		mt := strings.TrimSpace(strings.SplitN(part, ";", 2)[0])
		for _, choice := range choices {
			if mt == choice {
				return mt
			}
		}
	}
	return ""
}
