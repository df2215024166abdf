package model

import (
	"bytes"
	"encoding/gob"
	"io"
	"os"
	"path/filepath"

	"github.com/aayushagarwaltech-bot/Transportation/pkg/errors"
	"github.com/aayushagarwaltech-bot/Transportation/pkg/fsutil"
)

// SaveModel gob-encodes model into filename. The file is replaced atomically,
// so a reader never sees a half-written model.
//
//	var forest ensemble.RandomForestRegressor
//	// ... forest.Fit(X, y) ...
//	err := model.SaveModel(&forest, "models/model.gob")
func SaveModel(model interface{}, filename string) error {
	return fsutil.WriteFileAtomic(filename, 0o644, func(w io.Writer) error {
		return SaveModelToWriter(model, w)
	})
}

// LoadModel decodes a model previously written by SaveModel into model,
// which must be a pointer.
func LoadModel(model interface{}, filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return errors.Wrapf(err, "failed to open model file %s", filename)
	}
	defer file.Close()

	return LoadModelFromReader(model, file)
}

// SaveModelToWriter gob-encodes model into w.
func SaveModelToWriter(model interface{}, w io.Writer) error {
	if err := gob.NewEncoder(w).Encode(model); err != nil {
		return errors.Wrap(err, "failed to encode model")
	}
	return nil
}

// LoadModelFromReader decodes a gob-encoded model from r.
func LoadModelFromReader(model interface{}, r io.Reader) error {
	if err := gob.NewDecoder(r).Decode(model); err != nil {
		return errors.Wrap(err, "failed to decode model")
	}
	return nil
}

// Snapshot writes a content-addressed copy of model into dir as
// <sha256>.gob and returns its path. Writing the same model twice yields the
// same path.
func Snapshot(model interface{}, dir string) (string, error) {
	var buf bytes.Buffer
	if err := SaveModelToWriter(model, &buf); err != nil {
		return "", err
	}
	path := filepath.Join(dir, fsutil.HashBytes(buf.Bytes())+".gob")
	ok, err := fsutil.Exists(path)
	if err != nil {
		return "", err
	}
	if ok {
		return path, nil
	}
	if err := fsutil.WriteBytesAtomic(path, buf.Bytes(), 0o644); err != nil {
		return "", err
	}
	return path, nil
}
