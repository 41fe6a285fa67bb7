package anydata

import (
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/golang/snappy"
	"github.com/unixpickle/essentials"
	"github.com/unixpickle/serializer"
)

// DatasetFile is the name of the file holding a dataset
// within a dataset directory.
const DatasetFile = "dataset.snappy"

// Save writes the dataset to a directory, creating the
// directory if necessary.
func (d *Dataset) Save(dir string) error {
	data, err := serializer.SerializeAny(d)
	if err != nil {
		return essentials.AddCtx("save dataset", err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	return ioutil.WriteFile(filepath.Join(dir, DatasetFile), snappy.Encode(nil, data), 0644)
}

// Load reads a dataset written by Save.
func Load(dir string) (*Dataset, error) {
	compressed, err := ioutil.ReadFile(filepath.Join(dir, DatasetFile))
	if err != nil {
		return nil, err
	}
	data, err := snappy.Decode(nil, compressed)
	if err != nil {
		return nil, essentials.AddCtx("load dataset "+dir, err)
	}
	var res *Dataset
	if err := serializer.DeserializeAny(data, &res); err != nil {
		return nil, essentials.AddCtx("load dataset "+dir, err)
	}
	if err := res.Validate(); err != nil {
		return nil, essentials.AddCtx("load dataset "+dir, err)
	}
	return res, nil
}
