package dataset

import (
	"fmt"

	"github.com/batchatco/go-native-netcdf/netcdf"
	"github.com/batchatco/go-native-netcdf/netcdf/api"
)

const (
	magicCDF  = 'C'
	magicHDF5 = 0x89
)

// NetCDFOpener opens netCDF classic, 64-bit offset, CDF-5 and netCDF-4 files,
// transparently decompressing gzip and zstd wrapped inputs.
type NetCDFOpener struct{}

// Open implements Opener.
func (NetCDFOpener) Open(path string) (Dataset, error) {
	return OpenNetCDF(path)
}

// NetCDF is a Dataset backed by go-native-netcdf. A handle is not safe for
// concurrent use; workers open their own.
type NetCDF struct {
	path        string
	format      string
	compression Compression
	group       api.Group
	dims        []Dimension
	attrs       []Attribute
	vars        []Variable
	getters     map[string]api.VarGetter
	masks       map[string]MaskSpec

	// last record variable read whole, served to ReadIndex
	recordName string
	record     Array
}

var _ Dataset = (*NetCDF)(nil)

// OpenNetCDF opens the dataset at path and loads its metadata.
func OpenNetCDF(path string) (*NetCDF, error) {
	if err := CheckReadable(path); err != nil {
		return nil, err
	}
	comp, header, err := sniff(path)
	if err != nil {
		return nil, err
	}

	var (
		group api.Group
		magic byte
	)
	switch comp {
	case CompressionNone:
		magic = header[0]
		group, err = netcdf.Open(path)
	default:
		mf, derr := decompress(path, comp)
		if derr != nil {
			return nil, derr
		}
		var b [1]byte
		if _, rerr := mf.ReadAt(b[:], 0); rerr != nil {
			return nil, fmt.Errorf("empty %s stream", comp)
		}
		magic = b[0]
		group, err = netcdf.New(mf)
	}
	if err != nil {
		return nil, err
	}

	ds := &NetCDF{
		path:        path,
		compression: comp,
		group:       group,
		getters:     make(map[string]api.VarGetter),
		masks:       make(map[string]MaskSpec),
	}
	switch magic {
	case magicCDF:
		ds.format = "CDF"
	case magicHDF5:
		ds.format = "HDF5"
	}
	if err := ds.load(); err != nil {
		group.Close()
		return nil, err
	}
	return ds, nil
}

func (d *NetCDF) load() (err error) {
	defer recoverRead(&err)

	for _, name := range d.group.ListVariables() {
		vg, err := d.group.GetVarGetter(name)
		if err != nil {
			return fmt.Errorf("variable %s: %w", name, err)
		}
		d.getters[name] = vg

		v := Variable{
			Name:  name,
			DType: Numeric,
			Dims:  append([]string(nil), vg.Dimensions()...),
			Shape: toInts(vg.Shape()),
		}
		switch vg.Type() {
		case "char", "string":
			v.DType = Text
		}
		d.vars = append(d.vars, v)
		d.masks[name] = NewMaskSpec(attributeList(vg.Attributes()))
	}

	for _, name := range d.group.ListDimensions() {
		n, _ := d.group.GetDimension(name)
		dim := Dimension{Name: name, Len: int(n)}
		// The classic format stores the record dimension with length zero;
		// its current length is the record count seen by the variables.
		if d.format == "CDF" && n == 0 {
			dim.Unlimited = true
			dim.Len = d.recordCount(name)
		}
		d.dims = append(d.dims, dim)
	}

	d.attrs = attributeList(d.group.Attributes())
	return nil
}

func (d *NetCDF) recordCount(dim string) int {
	for _, v := range d.vars {
		if len(v.Dims) > 0 && v.Dims[0] == dim && len(v.Shape) > 0 {
			return v.Shape[0]
		}
	}
	return 0
}

// Path implements Dataset.
func (d *NetCDF) Path() string { return d.path }

// Format returns "CDF" or "HDF5".
func (d *NetCDF) Format() string { return d.format }

// Compression returns the container the file was read through.
func (d *NetCDF) Compression() Compression { return d.compression }

// Dimensions implements Dataset.
func (d *NetCDF) Dimensions() []Dimension { return d.dims }

// Attributes implements Dataset.
func (d *NetCDF) Attributes() []Attribute { return d.attrs }

// Variables implements Dataset.
func (d *NetCDF) Variables() []Variable { return d.vars }

// Read implements Dataset.
func (d *NetCDF) Read(name string) (arr Array, err error) {
	defer recoverRead(&err)

	vg, v, err := d.lookup(name)
	if err != nil {
		return Array{}, err
	}
	values, err := vg.Values()
	if err != nil {
		return Array{}, fmt.Errorf("reading %s: %w", name, err)
	}
	return d.toArray(name, values, v.Shape)
}

// ReadIndex implements Dataset.
func (d *NetCDF) ReadIndex(name string, axis, index int) (arr Array, err error) {
	defer recoverRead(&err)

	vg, v, err := d.lookup(name)
	if err != nil {
		return Array{}, err
	}
	if axis < 0 || axis >= len(v.Shape) {
		return Array{}, fmt.Errorf("%s: axis %d out of range for rank %d", name, axis, len(v.Shape))
	}
	if index < 0 || index >= v.Shape[axis] {
		return Array{}, fmt.Errorf("%s: index %d out of range for axis length %d", name, index, v.Shape[axis])
	}

	if axis == 0 && d.isRecordDim(v.Dims[0]) {
		whole, err := d.readRecordVar(name, v)
		if err != nil {
			return Array{}, err
		}
		return Slab(whole, 0, index)
	}

	var values any
	if axis == 0 {
		values, err = vg.GetSlice(int64(index), int64(index+1))
	} else {
		begin := make([]int64, len(v.Shape))
		end := make([]int64, len(v.Shape))
		for i, n := range v.Shape {
			end[i] = int64(n)
		}
		begin[axis], end[axis] = int64(index), int64(index+1)
		values, err = vg.GetSliceMD(begin, end)
	}
	if err != nil {
		return Array{}, fmt.Errorf("reading %s[%d]: %w", name, index, err)
	}

	shape := make([]int, 0, len(v.Shape)-1)
	shape = append(shape, v.Shape[:axis]...)
	shape = append(shape, v.Shape[axis+1:]...)
	return d.toArray(name, values, shape)
}

func (d *NetCDF) isRecordDim(name string) bool {
	for _, dim := range d.dims {
		if dim.Name == name {
			return dim.Unlimited
		}
	}
	return false
}

// readRecordVar reads a record variable whole and keeps it for the next
// call. The classic reader offsets per-record slices past the first record
// by the slice start twice, so record slices are cut from the whole array.
func (d *NetCDF) readRecordVar(name string, v Variable) (Array, error) {
	if d.recordName == name {
		return d.record, nil
	}
	values, err := d.getters[name].Values()
	if err != nil {
		return Array{}, fmt.Errorf("reading %s: %w", name, err)
	}
	arr, err := d.toArray(name, values, v.Shape)
	if err != nil {
		return Array{}, err
	}
	d.recordName, d.record = name, arr
	return arr, nil
}

// Close implements Dataset.
func (d *NetCDF) Close() error {
	d.group.Close()
	return nil
}

func (d *NetCDF) lookup(name string) (api.VarGetter, Variable, error) {
	vg, ok := d.getters[name]
	if !ok {
		return nil, Variable{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	v, _ := FindVariable(d, name)
	return vg, v, nil
}

func (d *NetCDF) toArray(name string, values any, shape []int) (Array, error) {
	data, err := Flatten(values)
	if err != nil {
		return Array{}, fmt.Errorf("%s: %w", name, err)
	}
	if len(data) != product(shape) {
		return Array{}, fmt.Errorf("%s: read %d values for shape %v", name, len(data), shape)
	}
	return Array{Data: data, Mask: d.masks[name].Apply(data), Shape: shape}, nil
}

func attributeList(am api.AttributeMap) []Attribute {
	if am == nil {
		return nil
	}
	keys := am.Keys()
	attrs := make([]Attribute, 0, len(keys))
	for _, k := range keys {
		v, _ := am.Get(k)
		attrs = append(attrs, Attribute{Name: k, Value: v})
	}
	return attrs
}

func toInts(in []int64) []int {
	out := make([]int, len(in))
	for i, v := range in {
		out[i] = int(v)
	}
	return out
}

// recoverRead converts a panic raised while decoding a malformed file into
// an error on the variable being read.
func recoverRead(err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("decoding failed: %v", r)
	}
}
