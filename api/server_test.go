package api_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"time"

	"github.com/klauspost/compress/zip"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/deephdc/demoapp/store"
)

const modelPath = "/v2/models/demo_app"

var _ = Describe("Server", func() {
	BeforeEach(beforeEach)
	AfterEach(afterEach)

	Describe("metadata", func() {
		It("should list the versions", func() {
			// When
			rec := do(httptest.NewRequest(http.MethodGet, "/v2", nil))

			// Then
			Expect(rec.Code).To(Equal(http.StatusOK))
			var resp map[string]interface{}
			decode(rec, &resp)
			Expect(resp).To(HaveKey("versions"))
			Expect(resp).To(HaveKey("version"))
		})

		It("should describe the model", func() {
			// When
			rec := do(httptest.NewRequest(http.MethodGet, modelPath, nil))

			// Then
			Expect(rec.Code).To(Equal(http.StatusOK))
			var resp map[string]interface{}
			decode(rec, &resp)
			Expect(resp["name"]).To(Equal("demo_app"))
			Expect(resp["author"]).To(Equal("Author name"))
			Expect(resp).To(HaveKey("help-train"))
			Expect(resp).To(HaveKey("help-predict"))
		})

		It("should list the single model", func() {
			// When
			rec := do(httptest.NewRequest(http.MethodGet, "/v2/models", nil))

			// Then
			Expect(rec.Code).To(Equal(http.StatusOK))
			var resp struct {
				Models []map[string]interface{} `json:"models"`
			}
			decode(rec, &resp)
			Expect(resp.Models).To(HaveLen(1))
			Expect(resp.Models[0]["id"]).To(Equal("demo_app"))
		})

		It("should fail with an unknown model", func() {
			// When
			rec := do(httptest.NewRequest(http.MethodGet, "/v2/models/other", nil))

			// Then
			Expect(rec.Code).To(Equal(http.StatusNotFound))
		})
	})

	Describe("predict", func() {
		It("should echo the arguments with probabilities", func() {
			// Given
			body, ct := predictBody(map[string]string{"demo_str": "hello", "demo_int_range": "7"})
			req := httptest.NewRequest(http.MethodPost, modelPath+"/predict", body)
			req.Header.Set("Content-Type", ct)

			// When
			rec := do(req)

			// Then
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Header().Get("Content-Type")).To(Equal("application/json"))
			var resp map[string]interface{}
			decode(rec, &resp)
			Expect(resp["demo_str"]).To(Equal("hello"))
			Expect(resp["demo_int_range"]).To(BeEquivalentTo(7))
			Expect(resp["demo_dict"]).To(Equal(map[string]interface{}{"a": 0.0, "b": 1.0}))
			Expect(resp["labels"]).To(Equal([]interface{}{"class2", "class3", "class0", "class1", "class4"}))

			probs, ok := resp["probabilities"].([]interface{})
			Expect(ok).To(BeTrue())
			Expect(probs).To(HaveLen(5))
			var sum float64
			for _, p := range probs {
				sum += p.(float64)
			}
			Expect(sum).To(BeNumerically("~", 1, 1e-9))

			image, err := base64.StdEncoding.DecodeString(resp["demo_image"].(string))
			Expect(err).To(BeNil())
			Expect(string(image)).To(Equal("demo_image content"))
		})

		It("should reject an out of range argument", func() {
			// Given
			body, ct := predictBody(map[string]string{"demo_int_range": "1000"})
			req := httptest.NewRequest(http.MethodPost, modelPath+"/predict", body)
			req.Header.Set("Content-Type", ct)

			// When
			rec := do(req)

			// Then
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
			var resp map[string]interface{}
			decode(rec, &resp)
			Expect(resp).NotTo(HaveKey("probabilities"))
			Expect(resp["code"]).To(BeEquivalentTo(400))
			Expect(resp["message"]).To(ContainSubstring("demo_int_range"))
		})

		It("should reject a request without files", func() {
			// Given
			req := httptest.NewRequest(http.MethodPost, modelPath+"/predict", nil)

			// When
			rec := do(req)

			// Then
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})

		It("should reject a body over max_upload_size", func() {
			// Given
			conf.API.MaxUploadSize = 1024
			setupSUT()
			body, ct := predictBodyOfSize(nil, 4096)
			req := httptest.NewRequest(http.MethodPost, modelPath+"/predict", body)
			req.Header.Set("Content-Type", ct)

			// When
			rec := do(req)

			// Then
			Expect(rec.Code).To(Equal(http.StatusRequestEntityTooLarge))
			var resp map[string]interface{}
			decode(rec, &resp)
			Expect(resp["code"]).To(BeEquivalentTo(413))
			Expect(resp).NotTo(HaveKey("probabilities"))
		})

		It("should answer with a zip", func() {
			// Given
			body, ct := predictBody(nil)
			req := httptest.NewRequest(http.MethodPost, modelPath+"/predict?accept=application/zip", body)
			req.Header.Set("Content-Type", ct)

			// When
			rec := do(req)

			// Then
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Header().Get("Content-Type")).To(Equal("application/zip"))
			data := rec.Body.Bytes()
			zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
			Expect(err).To(BeNil())
			Expect(zr.File).To(HaveLen(3))
		})

		It("should answer with the raw image from the Accept header", func() {
			// Given
			body, ct := predictBody(nil)
			req := httptest.NewRequest(http.MethodPost, modelPath+"/predict", body)
			req.Header.Set("Content-Type", ct)
			req.Header.Set("Accept", "image/*")

			// When
			rec := do(req)

			// Then
			Expect(rec.Code).To(Equal(http.StatusOK))
			content, err := io.ReadAll(rec.Body)
			Expect(err).To(BeNil())
			Expect(string(content)).To(Equal("demo_image content"))
			Expect(rec.Header().Get("Content-Disposition")).To(ContainSubstring("cat.png"))
		})
	})

	Describe("train", func() {
		It("should run a training to completion", func() {
			// When
			rec := do(httptest.NewRequest(http.MethodPost, modelPath+"/train?epoch_num=3", nil))

			// Then
			Expect(rec.Code).To(Equal(http.StatusOK))
			var started store.Training
			decode(rec, &started)
			Expect(started.UUID).NotTo(BeEmpty())
			Expect(started.Status).To(Equal(store.Running))

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_, err := manager.Wait(ctx, started.UUID)
			Expect(err).To(BeNil())

			rec = do(httptest.NewRequest(http.MethodGet, modelPath+"/train/"+started.UUID, nil))
			Expect(rec.Code).To(Equal(http.StatusOK))
			var finished store.Training
			decode(rec, &finished)
			Expect(finished.Status).To(Equal(store.Done))
			Expect(finished.History).To(HaveLen(3))
			Expect(finished.Result).To(HaveKeyWithValue("status", "done"))
			Expect(finished.Result).To(HaveKeyWithValue("final accuracy", 0.9))

			rec = do(httptest.NewRequest(http.MethodGet, modelPath+"/train", nil))
			Expect(rec.Code).To(Equal(http.StatusOK))
			var runs []store.Training
			decode(rec, &runs)
			Expect(runs).To(HaveLen(1))
		})

		It("should cancel a training", func() {
			// Given
			rec := do(httptest.NewRequest(http.MethodPost, modelPath+"/train?epoch_num=1000", nil))
			Expect(rec.Code).To(Equal(http.StatusOK))
			var started store.Training
			decode(rec, &started)

			// When
			rec = do(httptest.NewRequest(http.MethodDelete, modelPath+"/train/"+started.UUID, nil))

			// Then
			Expect(rec.Code).To(Equal(http.StatusOK))
			var cancelled store.Training
			decode(rec, &cancelled)
			Expect(cancelled.Status).To(Equal(store.Cancelled))
		})

		It("should limit the size of a training form", func() {
			// Given
			conf.API.MaxUploadSize = 1024
			setupSUT()
			form := url.Values{"epoch_num": {"1"}, "padding": {strings.Repeat("x", 4096)}}
			req := httptest.NewRequest(http.MethodPost, modelPath+"/train", strings.NewReader(form.Encode()))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

			// When
			rec := do(req)

			// Then
			Expect(rec.Code).To(Equal(http.StatusRequestEntityTooLarge))
			rec = do(httptest.NewRequest(http.MethodGet, modelPath+"/train", nil))
			var runs []store.Training
			decode(rec, &runs)
			Expect(runs).To(BeEmpty())
		})

		It("should reject a non positive epoch count", func() {
			// When
			rec := do(httptest.NewRequest(http.MethodPost, modelPath+"/train?epoch_num=0", nil))

			// Then
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})

		It("should fail with an unknown training", func() {
			// When
			rec := do(httptest.NewRequest(http.MethodGet, modelPath+"/train/nope", nil))

			// Then
			Expect(rec.Code).To(Equal(http.StatusNotFound))
		})
	})
})
