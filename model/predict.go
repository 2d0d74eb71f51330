package model

import (
	"context"
	"encoding/base64"
	"io"
	"math/rand"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"sync"

	jsoniter "github.com/json-iterator/go"
	"github.com/klauspost/compress/zip"
	"github.com/pkg/errors"

	"github.com/deephdc/demoapp/log"
	"github.com/deephdc/demoapp/parallel"
	"github.com/deephdc/demoapp/schema"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Labels are the mock class labels attached to every prediction.
var Labels = []string{"class2", "class3", "class0", "class1", "class4"}

// Result is the outcome of Predict: either a JSON mapping in Fields, or a
// stream in Body that the caller must close.
type Result struct {
	Fields      map[string]interface{}
	Body        io.ReadCloser
	ContentType string
	Filename    string
}

// Predict echoes args back with mock labels and probabilities. The accept
// argument selects the response: JSON with base64 encoded media, a zip of
// the media files, or the raw bytes of one media file.
func Predict(ctx context.Context, args schema.Args) (*Result, error) {
	res, err := predict(ctx, args)
	return res, catch(err)
}

func predict(ctx context.Context, args schema.Args) (*Result, error) {
	out := make(map[string]interface{}, len(args)+2)
	for k, v := range args {
		if f, ok := v.(schema.UploadedFile); ok {
			out[k] = f.Name
			continue
		}
		out[k] = v
	}

	// dicts travel as JSON strings
	if raw, ok := args["demo_dict"].(string); ok {
		var dict interface{}
		if err := json.Unmarshal([]byte(raw), &dict); err != nil {
			return nil, errors.Wrap(err, "demo_dict")
		}
		out["demo_dict"] = dict
	}

	out["probabilities"] = probabilities(len(Labels))
	out["labels"] = append([]string(nil), Labels...)

	accept, _ := args["accept"].(string)
	if accept == "" {
		accept = AcceptJSON
	}
	log.Debugf(ctx, "Predicting with accept=%s", accept)

	switch accept {
	case AcceptJSON:
		if err := encodeMedia(ctx, args, out); err != nil {
			return nil, err
		}
		return &Result{Fields: out, ContentType: AcceptJSON}, nil
	case AcceptZip:
		return zipMedia(args)
	case AcceptImage, AcceptAudio, AcceptVideo:
		return rawMedia(args, mediaByAccept[accept])
	}
	return nil, errors.Errorf("unsupported accept %q", accept)
}

// probabilities returns n random values summing to one.
func probabilities(n int) []float64 {
	p := make([]float64, n)
	var sum float64
	for i := range p {
		p[i] = rand.Float64()
		sum += p[i]
	}
	for i := range p {
		if sum == 0 {
			p[i] = 1 / float64(n)
		} else {
			p[i] /= sum
		}
	}
	return p
}

// encodeMedia replaces each media argument in out by its base64 content.
func encodeMedia(ctx context.Context, args schema.Args, out map[string]interface{}) error {
	var mu sync.Mutex
	return parallel.ForEach(ctx, len(MediaFields), len(MediaFields), func(ctx context.Context, i int) error {
		k := MediaFields[i]
		f, err := args.File(k)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(f.Path)
		if err != nil {
			return errors.Wrap(err, k)
		}
		encoded := base64.StdEncoding.EncodeToString(data)
		mu.Lock()
		out[k] = encoded
		mu.Unlock()
		return nil
	})
}

// zipMedia packs the media files into a zip inside a temporary directory
// that goes away when the returned body is closed.
func zipMedia(args schema.Args) (res *Result, err error) {
	dir, err := os.MkdirTemp("", "demoapp-predict-")
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			os.RemoveAll(dir)
		}
	}()

	zipPath := filepath.Join(dir, "demo.zip")
	zf, err := os.Create(zipPath)
	if err != nil {
		return nil, err
	}
	zw := zip.NewWriter(zf)
	for _, k := range MediaFields {
		if err = addToZip(zw, args, k); err != nil {
			zw.Close()
			zf.Close()
			return nil, err
		}
	}
	if err = zw.Close(); err != nil {
		zf.Close()
		return nil, err
	}
	if err = zf.Close(); err != nil {
		return nil, err
	}

	body, err := os.Open(zipPath)
	if err != nil {
		return nil, err
	}
	return &Result{
		Body:        &removeOnClose{File: body, dir: dir},
		ContentType: AcceptZip,
		Filename:    "demo.zip",
	}, nil
}

func addToZip(zw *zip.Writer, args schema.Args, k string) error {
	f, err := args.File(k)
	if err != nil {
		return err
	}
	src, err := os.Open(f.Path)
	if err != nil {
		return errors.Wrap(err, k)
	}
	defer src.Close()

	dst, err := zw.Create(k + "_" + filepath.Base(f.Name))
	if err != nil {
		return err
	}
	_, err = io.Copy(dst, src)
	return err
}

func rawMedia(args schema.Args, k string) (*Result, error) {
	f, err := args.File(k)
	if err != nil {
		return nil, err
	}
	body, err := os.Open(f.Path)
	if err != nil {
		return nil, errors.Wrap(err, k)
	}
	return &Result{
		Body:        body,
		ContentType: contentType(f),
		Filename:    filepath.Base(f.Name),
	}, nil
}

func contentType(f schema.UploadedFile) string {
	if f.ContentType != "" && f.ContentType != "application/octet-stream" {
		return f.ContentType
	}
	if t := mime.TypeByExtension(strings.ToLower(filepath.Ext(f.Name))); t != "" {
		return t
	}
	return "application/octet-stream"
}

type removeOnClose struct {
	*os.File
	dir string
}

func (r *removeOnClose) Close() error {
	err := r.File.Close()
	if rerr := os.RemoveAll(r.dir); err == nil {
		err = rerr
	}
	return err
}
