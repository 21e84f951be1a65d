package model

import (
	"io"
	"os"

	"github.com/goccy/go-json"

	"github.com/YuminosukeSato/surveyboost/pkg/errors"
)

// SaveJSON はモデルをJSONとしてファイルに保存する
//
// 使用例:
//
//	if err := model.SaveJSON(reg.Snapshot(), "model.json"); err != nil {
//	    return err
//	}
func SaveJSON(v interface{}, filename string) (err error) {
	file, err := os.Create(filename)
	if err != nil {
		return errors.NewIOError("create", filename, err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = errors.NewIOError("close", filename, cerr)
		}
	}()
	return WriteJSON(v, file)
}

// LoadJSON はファイルからJSONモデルを読み込む
func LoadJSON(v interface{}, filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return errors.NewIOError("open", filename, err)
	}
	defer file.Close()
	return ReadJSON(v, file)
}

// WriteJSON encodes v with indentation to w.
func WriteJSON(v interface{}, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return errors.Wrap(err, "failed to encode model")
	}
	return nil
}

// ReadJSON decodes v from r.
func ReadJSON(v interface{}, r io.Reader) error {
	if err := json.NewDecoder(r).Decode(v); err != nil {
		return errors.Wrap(err, "failed to decode model")
	}
	return nil
}
