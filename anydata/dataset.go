// Package anydata stores labeled datasets, persists them,
// and transforms their labels and weights.
package anydata

import (
	"fmt"
	"math/rand"

	"github.com/unixpickle/anyvec"
	"github.com/unixpickle/anyvec/anyvec64"
	"github.com/unixpickle/anyvec/anyvecsave"
	"github.com/unixpickle/essentials"
	"github.com/unixpickle/serializer"
)

func init() {
	var r Record
	serializer.RegisterTypedDeserializer(r.SerializerType(), DeserializeRecord)
	var l recordList
	serializer.RegisterTypedDeserializer(l.SerializerType(), deserializeRecordList)
	var t taskList
	serializer.RegisterTypedDeserializer(t.SerializerType(), deserializeTaskList)
	var d Dataset
	serializer.RegisterTypedDeserializer(d.SerializerType(), DeserializeDataset)
}

// A Record is one labeled example.
//
// Y and W have one entry per task.
// A weight of 0 marks a missing label.
type Record struct {
	ID string
	X  []float64
	Y  []float64
	W  []float64
}

// DeserializeRecord deserializes a Record.
func DeserializeRecord(d []byte) (*Record, error) {
	var id string
	var x, y, w *anyvecsave.S
	if err := serializer.DeserializeAny(d, &id, &x, &y, &w); err != nil {
		return nil, essentials.AddCtx("deserialize Record", err)
	}
	return &Record{
		ID: id,
		X:  vectorFloats(x.Vector),
		Y:  vectorFloats(y.Vector),
		W:  vectorFloats(w.Vector),
	}, nil
}

// Copy creates a deep copy of the record.
func (r *Record) Copy() *Record {
	return &Record{
		ID: r.ID,
		X:  append([]float64{}, r.X...),
		Y:  append([]float64{}, r.Y...),
		W:  append([]float64{}, r.W...),
	}
}

// SerializerType returns the unique ID used to serialize
// a Record with the serializer package.
func (r *Record) SerializerType() string {
	return "github.com/unixpickle/anychem/anydata.Record"
}

// Serialize serializes the record.
func (r *Record) Serialize() ([]byte, error) {
	return serializer.SerializeAny(
		r.ID,
		&anyvecsave.S{Vector: makeVector(r.X)},
		&anyvecsave.S{Vector: makeVector(r.Y)},
		&anyvecsave.S{Vector: makeVector(r.W)},
	)
}

// A Dataset is an ordered collection of records sharing
// the same task list.
//
// Datasets are treated as immutable: transformations
// return new datasets.
type Dataset struct {
	Tasks   []string
	Records []*Record
}

// NewDataset creates a dataset after checking that every
// record has one label and one weight per task.
func NewDataset(tasks []string, records []*Record) (*Dataset, error) {
	d := &Dataset{Tasks: tasks, Records: records}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

// DeserializeDataset deserializes a Dataset.
func DeserializeDataset(d []byte) (*Dataset, error) {
	var tasks taskList
	var records recordList
	if err := serializer.DeserializeAny(d, &tasks, &records); err != nil {
		return nil, essentials.AddCtx("deserialize Dataset", err)
	}
	res := &Dataset{Records: records}
	if len(tasks) > 0 {
		res.Tasks = tasks
	}
	return res, nil
}

// Validate checks the label and weight lengths of every
// record.
func (d *Dataset) Validate() error {
	for i, r := range d.Records {
		if len(r.Y) != len(d.Tasks) {
			return fmt.Errorf("record %d (%q): %d labels for %d tasks", i, r.ID,
				len(r.Y), len(d.Tasks))
		}
		if len(r.W) != len(d.Tasks) {
			return fmt.Errorf("record %d (%q): %d weights for %d tasks", i, r.ID,
				len(r.W), len(d.Tasks))
		}
	}
	return nil
}

// Len returns the number of records.
func (d *Dataset) Len() int {
	return len(d.Records)
}

// NumTasks returns the number of tasks.
func (d *Dataset) NumTasks() int {
	return len(d.Tasks)
}

// Copy creates a deep copy of the dataset.
func (d *Dataset) Copy() *Dataset {
	res := &Dataset{
		Tasks:   append([]string{}, d.Tasks...),
		Records: make([]*Record, len(d.Records)),
	}
	for i, r := range d.Records {
		res.Records[i] = r.Copy()
	}
	return res
}

// Labels returns a copy of every record's labels.
func (d *Dataset) Labels() [][]float64 {
	res := make([][]float64, len(d.Records))
	for i, r := range d.Records {
		res[i] = append([]float64{}, r.Y...)
	}
	return res
}

// Weights returns a copy of every record's weights.
func (d *Dataset) Weights() [][]float64 {
	res := make([][]float64, len(d.Records))
	for i, r := range d.Records {
		res[i] = append([]float64{}, r.W...)
	}
	return res
}

// Select creates a dataset sharing the records at the
// given indices.
func (d *Dataset) Select(indices []int) *Dataset {
	res := &Dataset{Tasks: d.Tasks, Records: make([]*Record, len(indices))}
	for i, idx := range indices {
		res.Records[i] = d.Records[idx]
	}
	return res
}

// RandomSplit shuffles the records with r and splits them
// into train, validation, and test datasets.
// The test set receives whatever the first two fractions
// leave over.
func (d *Dataset) RandomSplit(r *rand.Rand, fracTrain, fracValid float64) (train,
	valid, test *Dataset) {
	perm := r.Perm(len(d.Records))
	numTrain := int(fracTrain * float64(len(perm)))
	numValid := int(fracValid * float64(len(perm)))
	if numTrain+numValid > len(perm) {
		numValid = len(perm) - numTrain
	}
	return d.Select(perm[:numTrain]), d.Select(perm[numTrain:numTrain+numValid]),
		d.Select(perm[numTrain+numValid:])
}

// SerializerType returns the unique ID used to serialize
// a Dataset with the serializer package.
func (d *Dataset) SerializerType() string {
	return "github.com/unixpickle/anychem/anydata.Dataset"
}

// Serialize serializes the dataset.
func (d *Dataset) Serialize() ([]byte, error) {
	return serializer.SerializeAny(taskList(d.Tasks), recordList(d.Records))
}

// taskList stores each task name as its own element, so
// names may be empty or contain any byte.
type taskList []string

func deserializeTaskList(d []byte) (taskList, error) {
	slice, err := serializer.DeserializeSlice(d)
	if err != nil {
		return nil, essentials.AddCtx("deserialize tasks", err)
	}
	res := make(taskList, len(slice))
	for i, x := range slice {
		if s, ok := x.(serializer.String); ok {
			res[i] = string(s)
		} else {
			return nil, fmt.Errorf("deserialize tasks: not a string: %T", x)
		}
	}
	return res, nil
}

func (t taskList) SerializerType() string {
	return "github.com/unixpickle/anychem/anydata.taskList"
}

func (t taskList) Serialize() ([]byte, error) {
	slice := make([]serializer.Serializer, len(t))
	for i, x := range t {
		slice[i] = serializer.String(x)
	}
	return serializer.SerializeSlice(slice)
}

type recordList []*Record

func deserializeRecordList(d []byte) (recordList, error) {
	slice, err := serializer.DeserializeSlice(d)
	if err != nil {
		return nil, essentials.AddCtx("deserialize records", err)
	}
	res := make(recordList, len(slice))
	for i, x := range slice {
		if r, ok := x.(*Record); ok {
			res[i] = r
		} else {
			return nil, fmt.Errorf("deserialize records: not a *Record: %T", x)
		}
	}
	return res, nil
}

func (r recordList) SerializerType() string {
	return "github.com/unixpickle/anychem/anydata.recordList"
}

func (r recordList) Serialize() ([]byte, error) {
	slice := make([]serializer.Serializer, len(r))
	for i, x := range r {
		slice[i] = x
	}
	return serializer.SerializeSlice(slice)
}

func makeVector(x []float64) anyvec.Vector {
	c := anyvec64.DefaultCreator{}
	return c.MakeVectorData(c.MakeNumericList(x))
}

func vectorFloats(v anyvec.Vector) []float64 {
	switch data := v.Data().(type) {
	case []float64:
		return data
	case []float32:
		res := make([]float64, len(data))
		for i, x := range data {
			res[i] = float64(x)
		}
		return res
	default:
		panic(fmt.Sprintf("unsupported numeric list: %T", data))
	}
}
