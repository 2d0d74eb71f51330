// Package checkpoint writes the placeholder model produced by a training run.
package checkpoint

import "compress/lzw"
import "io"
import "os"
import "path/filepath"

import "github.com/google/renameio"
import jsoniter "github.com/json-iterator/go"
import "github.com/neurlang/quaternary"
import "github.com/pkg/errors"

import "github.com/deephdc/demoapp/datasets"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// FileName is the checkpoint file inside a run directory.
const FileName = "final_model.ckpt"

// Checkpoint is what a dummy training run leaves behind: the loss of every
// epoch and a quaternary filter telling which epochs improved.
type Checkpoint struct {
	Epochs int       `json:"epochs"`
	Loss   []float64 `json:"loss"`
	Filter []byte    `json:"filter,omitempty"`
}

// New builds the checkpoint of a loss history.
func New(loss []float64) Checkpoint {
	c := Checkpoint{Epochs: len(loss), Loss: loss}
	if len(loss) == 0 {
		return c
	}
	dset := datasets.FromHistory(loss)
	q := quaternary.Make(dset)
	c.Filter = []byte(q)
	return c
}

// Save writes the checkpoint of a run to dir/id/FileName and returns the path.
func Save(dir, id string, loss []float64) (string, error) {
	runDir := filepath.Join(dir, id)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", errors.Wrap(err, "create checkpoint directory")
	}
	name := filepath.Join(runDir, FileName)
	if err := New(loss).WriteFile(name); err != nil {
		return "", err
	}
	return name, nil
}

// WriteFile atomically replaces name with the compressed checkpoint.
func (c Checkpoint) WriteFile(name string) error {
	pf, err := renameio.TempFile(filepath.Dir(name), name)
	if err != nil {
		return errors.Wrapf(err, "create %s", name)
	}
	defer pf.Cleanup()

	if err := c.Write(pf); err != nil {
		return errors.Wrapf(err, "write %s", name)
	}
	return pf.CloseAtomicallyReplace()
}

// Write writes the lzw compressed JSON checkpoint to a writer
func (c Checkpoint) Write(w io.Writer) error {
	lw := lzw.NewWriter(w, lzw.LSB, 8)
	if err := json.NewEncoder(lw).Encode(c); err != nil {
		lw.Close()
		return err
	}
	return lw.Close()
}

// ReadFile reads a checkpoint written by WriteFile.
func ReadFile(name string) (c Checkpoint, err error) {
	file, err := os.Open(name)
	if err != nil {
		return c, err
	}
	defer file.Close()
	return Read(file)
}

// Read reads a checkpoint from a reader
func Read(r io.Reader) (c Checkpoint, err error) {
	lr := lzw.NewReader(r, lzw.LSB, 8)
	defer lr.Close()
	err = json.NewDecoder(lr).Decode(&c)
	return c, errors.Wrap(err, "decode checkpoint")
}
