// Package ml provides the tensor primitives that sit between the estimator and its callers.
package ml

import (
	"reflect"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/exp/constraints"
	"gorgonia.org/tensor"
)

// Tensors are a collection of named tensors.
type Tensors map[string]*tensor.Dense

// Get returns the tensor stored under name or an error naming the tensors that are present.
func (ts Tensors) Get(name string) (*tensor.Dense, error) {
	t, ok := ts[name]
	if !ok || t == nil {
		return nil, errors.Errorf("no tensor named %q among tensors [%s]", name, strings.Join(tensorNames(ts), ", "))
	}
	return t, nil
}

func tensorNames(t Tensors) []string {
	names := make([]string, 0, len(t))
	for name := range t {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// number interface for converting between numbers.
type number interface {
	constraints.Integer | constraints.Float
}

// convertNumberSlice converts any number slice into another number slice.
func convertNumberSlice[T1, T2 number](t1 []T1) []T2 {
	t2 := make([]T2, len(t1))
	for i := range t1 {
		t2[i] = T2(t1[i])
	}
	return t2
}

// ConvertToFloat64Slice converts the backing data of a tensor into a []float64.
func ConvertToFloat64Slice(slice interface{}) ([]float64, error) {
	switch v := slice.(type) {
	case []float64:
		return v, nil
	case float64:
		return []float64{v}, nil
	case []float32:
		return convertNumberSlice[float32, float64](v), nil
	case float32:
		return []float64{float64(v)}, nil
	case []int:
		return convertNumberSlice[int, float64](v), nil
	case []int32:
		return convertNumberSlice[int32, float64](v), nil
	case []int64:
		return convertNumberSlice[int64, float64](v), nil
	case []uint8:
		return convertNumberSlice[uint8, float64](v), nil
	default:
		return nil, errors.Errorf("dont know how to convert slice of %T into a []float64", slice)
	}
}

// ConvertToInt32Slice converts the backing data of an integer tensor into a []int32.
func ConvertToInt32Slice(slice interface{}) ([]int32, error) {
	switch v := slice.(type) {
	case []int32:
		return v, nil
	case []int:
		return convertNumberSlice[int, int32](v), nil
	case []int64:
		return convertNumberSlice[int64, int32](v), nil
	case []uint8:
		return convertNumberSlice[uint8, int32](v), nil
	default:
		return nil, errors.Errorf("dont know how to convert slice of %T into a []int32", slice)
	}
}

// DataOf returns the backing slice of t. Zero-size tensors yield an empty slice of their dtype, as
// tensor.Dense.Data panics on them.
func DataOf(t *tensor.Dense) interface{} {
	if !t.IsScalar() && t.Shape().TotalSize() == 0 {
		return reflect.MakeSlice(reflect.SliceOf(t.Dtype().Type), 0, 0).Interface()
	}
	return t.Data()
}

// Float64Rows reads a tensor as rows of cols values. Leading dimensions are flattened into rows.
func Float64Rows(t *tensor.Dense, cols int) ([][]float64, error) {
	data, err := ConvertToFloat64Slice(DataOf(t))
	if err != nil {
		return nil, err
	}
	if cols <= 0 || len(data)%cols != 0 {
		return nil, errors.Errorf("cannot split %d values of shape %v into rows of %d", len(data), t.Shape(), cols)
	}
	rows := make([][]float64, 0, len(data)/cols)
	for i := 0; i < len(data); i += cols {
		rows = append(rows, data[i:i+cols])
	}
	return rows, nil
}

// NewFloat32Tensor builds a float32 tensor of the given shape from row-major float64 values.
func NewFloat32Tensor(data []float64, shape ...int) *tensor.Dense {
	return tensor.New(tensor.WithShape(shape...), tensor.WithBacking(convertNumberSlice[float64, float32](data)))
}

// ZerosLike returns a float32 tensor of zeros with the same shape as t.
func ZerosLike(t *tensor.Dense) *tensor.Dense {
	shape := t.Shape().Clone()
	return tensor.New(tensor.WithShape(shape...), tensor.WithBacking(make([]float32, shape.TotalSize())))
}
