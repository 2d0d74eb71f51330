package model

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deephdc/demoapp/schema"
)

var media = map[string][]byte{
	"demo_image": []byte("\x89PNG fake image"),
	"demo_audio": []byte("RIFF fake audio"),
	"demo_video": []byte("fake video bytes"),
}

var names = map[string]string{
	"demo_image": "cat.png",
	"demo_audio": "meow.wav",
	"demo_video": "cat.mp4",
}

func uploads(t *testing.T) map[string]schema.UploadedFile {
	t.Helper()
	dir := t.TempDir()
	files := map[string]schema.UploadedFile{}
	for k, data := range media {
		path := filepath.Join(dir, k)
		require.NoError(t, os.WriteFile(path, data, 0o644))
		files[k] = schema.UploadedFile{Path: path, Name: names[k]}
	}
	return files
}

func parsedPredictArgs(t *testing.T, values url.Values) schema.Args {
	t.Helper()
	args, err := PredictArgs().Parse(values, uploads(t))
	require.NoError(t, err)
	return args
}

func TestPredictJSON(t *testing.T) {
	res, err := Predict(context.Background(), parsedPredictArgs(t, url.Values{"demo_str": {"hello"}}))
	require.NoError(t, err)
	require.Nil(t, res.Body)
	assert.Equal(t, AcceptJSON, res.ContentType)

	out := res.Fields
	assert.Equal(t, []string{"class2", "class3", "class0", "class1", "class4"}, out["labels"])

	probs, ok := out["probabilities"].([]float64)
	require.True(t, ok)
	require.Len(t, probs, 5)
	var sum float64
	for _, p := range probs {
		assert.GreaterOrEqual(t, p, 0.0)
		sum += p
	}
	assert.InDelta(t, 1.0, sum, 1e-9)

	// inputs are echoed
	assert.Equal(t, "hello", out["demo_str"])
	assert.Equal(t, "choice2", out["demo_str_choice"])
	assert.Equal(t, 50, out["demo_int_range"])
	assert.Equal(t, []float64{0.1, 0.2, 0.3}, out["demo_list_of_floats"])
	assert.Equal(t, map[string]interface{}{"a": 0.0, "b": 1.0}, out["demo_dict"])

	for k, data := range media {
		assert.Equal(t, base64.StdEncoding.EncodeToString(data), out[k], k)
	}
}

func TestPredictZip(t *testing.T) {
	res, err := Predict(context.Background(), parsedPredictArgs(t, url.Values{"accept": {AcceptZip}}))
	require.NoError(t, err)
	require.NotNil(t, res.Body)
	assert.Equal(t, AcceptZip, res.ContentType)

	data, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	f, ok := res.Body.(*removeOnClose)
	require.True(t, ok)
	require.NoError(t, res.Body.Close())
	_, err = os.Stat(f.dir)
	assert.True(t, os.IsNotExist(err), "temporary directory removed on close")

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	got := map[string][]byte{}
	for _, zf := range zr.File {
		rc, err := zf.Open()
		require.NoError(t, err)
		content, err := io.ReadAll(rc)
		require.NoError(t, err)
		rc.Close()
		got[zf.Name] = content
	}
	assert.Equal(t, map[string][]byte{
		"demo_image_cat.png":  media["demo_image"],
		"demo_audio_meow.wav": media["demo_audio"],
		"demo_video_cat.mp4":  media["demo_video"],
	}, got)
}

func TestPredictRawMedia(t *testing.T) {
	for accept, k := range mediaByAccept {
		res, err := Predict(context.Background(), parsedPredictArgs(t, url.Values{"accept": {accept}}))
		require.NoError(t, err, accept)
		data, err := io.ReadAll(res.Body)
		require.NoError(t, err)
		res.Body.Close()
		assert.Equal(t, media[k], data, accept)
		assert.Equal(t, names[k], res.Filename)
	}
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "image/png", contentType(schema.UploadedFile{Name: "a.PNG"}))
	assert.Equal(t, "image/jpeg", contentType(schema.UploadedFile{Name: "a.png", ContentType: "image/jpeg"}))
	assert.Equal(t, "application/octet-stream", contentType(schema.UploadedFile{Name: "a.unknownext"}))
}

func TestPredictMissingFile(t *testing.T) {
	args := parsedPredictArgs(t, url.Values{})
	img, err := args.File("demo_image")
	require.NoError(t, err)
	require.NoError(t, os.Remove(img.Path))

	for _, accept := range []string{AcceptJSON, AcceptZip, AcceptImage} {
		a := args.Clone()
		a["accept"] = accept
		_, err = Predict(context.Background(), a)
		var br *BadRequest
		require.True(t, errors.As(err, &br), accept)
		assert.True(t, errors.Is(err, os.ErrNotExist), accept)
		assert.Contains(t, err.Error(), "demo_image", accept)
	}
}

func TestPredictBadDict(t *testing.T) {
	args := parsedPredictArgs(t, url.Values{})
	args["demo_dict"] = "{not json"
	_, err := Predict(context.Background(), args)
	var br *BadRequest
	assert.True(t, errors.As(err, &br))
}

func TestProbabilities(t *testing.T) {
	for i := 0; i < 100; i++ {
		var sum float64
		for _, p := range probabilities(5) {
			sum += p
		}
		assert.InDelta(t, 1.0, sum, 1e-9)
	}
}

func TestTrain(t *testing.T) {
	var losses []float64
	start := time.Now()
	out, err := Train(context.Background(), 3, TrainOptions{
		EpochDuration: 20 * time.Millisecond,
		OnEpoch: func(epoch int, loss float64) {
			assert.Equal(t, len(losses), epoch)
			losses = append(losses, loss)
		},
	})
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"status": "done", "final accuracy": 0.9}, out)
	assert.GreaterOrEqual(t, elapsed, 60*time.Millisecond)
	require.Len(t, losses, 3)
	for i := 1; i < len(losses); i++ {
		assert.Less(t, losses[i], losses[i-1])
	}
	assert.Equal(t, Loss(2), losses[2])
}

func TestTrainCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	epochs := 0
	_, err := Train(ctx, 100, TrainOptions{
		EpochDuration: time.Millisecond,
		OnEpoch: func(int, float64) {
			epochs++
			if epochs == 2 {
				cancel()
			}
		},
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, epochs)
}

func TestTrainNegative(t *testing.T) {
	_, err := Train(context.Background(), -1, TrainOptions{})
	var br *BadRequest
	assert.True(t, errors.As(err, &br))
}
