package api

import (
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/deephdc/demoapp/schema"
)

// maxMemory is how much of a multipart body is kept in memory before the
// rest spills to disk.
const maxMemory = 8 << 20

// form is the parsed request: values from the query string and the body,
// and uploaded files saved into a request scoped temporary directory.
type form struct {
	values url.Values
	files  map[string]schema.UploadedFile

	dir       string
	multipart *multipart.Form
}

func readForm(req *http.Request) (*form, error) {
	f := &form{files: map[string]schema.UploadedFile{}}

	mt, _, _ := mime.ParseMediaType(req.Header.Get("Content-Type"))
	if mt != "multipart/form-data" {
		if err := req.ParseForm(); err != nil {
			return nil, err
		}
		f.values = req.Form
		return f, nil
	}

	if err := req.ParseMultipartForm(maxMemory); err != nil {
		return nil, err
	}
	f.values = req.Form
	f.multipart = req.MultipartForm

	if len(req.MultipartForm.File) == 0 {
		return f, nil
	}
	dir, err := os.MkdirTemp("", "demoapp-upload-")
	if err != nil {
		f.Close()
		return nil, err
	}
	f.dir = dir

	var i int
	for key, headers := range req.MultipartForm.File {
		if len(headers) == 0 {
			continue
		}
		fh := headers[0]
		path := filepath.Join(dir, fmt.Sprintf("upload-%d%s", i, filepath.Ext(fh.Filename)))
		i++
		if err := save(fh, path); err != nil {
			f.Close()
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		f.files[key] = schema.UploadedFile{
			Path:        path,
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
		}
	}
	return f, nil
}

func save(fh *multipart.FileHeader, path string) error {
	src, err := fh.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return err
	}
	return dst.Close()
}

// Close removes the uploaded files.
func (f *form) Close() {
	if f.multipart != nil {
		if err := f.multipart.RemoveAll(); err != nil {
			logrus.Debugf("Unable to remove multipart files: %v", err)
		}
	}
	if f.dir != "" {
		if err := os.RemoveAll(f.dir); err != nil {
			logrus.Warnf("Unable to remove upload directory %s: %v", f.dir, err)
		}
	}
}
