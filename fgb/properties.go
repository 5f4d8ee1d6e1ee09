package fgb

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/flatgeobuf/flatgeobuf/src/go/flattypes"
	"github.com/flatgeobuf/flatgeobuf/src/go/writer"
	flatbuffers "github.com/google/flatbuffers/go"
	"github.com/paulmach/orb/geojson"
)

// columnSchema is the property schema shared by all features of a layer.
// Attribute names are normalized to lower case on both the write and the
// read path; downstream joins on comid depend on that normalization.
type columnSchema struct {
	names []string
	types map[string]flattypes.ColumnType
	index map[string]int
}

// inferSchema scans a layer's features and derives the column set. Names
// are lower-cased and kept in first-occurrence order (ties broken
// alphabetically within one feature for determinism).
func inferSchema(features []*geojson.Feature) *columnSchema {
	s := &columnSchema{
		types: make(map[string]flattypes.ColumnType),
		index: make(map[string]int),
	}

	for _, f := range features {
		if f == nil || f.Properties == nil {
			continue
		}
		keys := make([]string, 0, len(f.Properties))
		for k := range f.Properties {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, k := range keys {
			name := strings.ToLower(k)
			t := columnTypeOf(f.Properties[k])
			if existing, ok := s.types[name]; ok {
				s.types[name] = promote(existing, t)
				continue
			}
			s.types[name] = t
			s.index[name] = len(s.names)
			s.names = append(s.names, name)
		}
	}
	return s
}

// columns materializes the schema as FlatGeobuf writer columns.
func (s *columnSchema) columns(builder *flatbuffers.Builder) []*writer.Column {
	cols := make([]*writer.Column, 0, len(s.names))
	for _, name := range s.names {
		col := writer.NewColumn(builder)
		col.SetName(name)
		col.SetTitle(name)
		col.SetType(s.types[name])
		col.SetNullable(true)
		cols = append(cols, col)
	}
	return cols
}

// columnTypeOf picks the FlatGeobuf column type for an attribute value.
// Hydrography attributes are booleans, integers (comid is a Long),
// doubles and strings; anything else is stored as its string form.
func columnTypeOf(v interface{}) flattypes.ColumnType {
	switch n := v.(type) {
	case bool:
		return flattypes.ColumnTypeBool
	case int:
		if n >= math.MinInt32 && n <= math.MaxInt32 {
			return flattypes.ColumnTypeInt
		}
		return flattypes.ColumnTypeLong
	case int32:
		return flattypes.ColumnTypeInt
	case int64:
		return flattypes.ColumnTypeLong
	case float32, float64:
		return flattypes.ColumnTypeDouble
	default:
		return flattypes.ColumnTypeString
	}
}

// promote resolves a type conflict across features toward the more
// general type.
func promote(a, b flattypes.ColumnType) flattypes.ColumnType {
	if a == b {
		return a
	}
	rank := map[flattypes.ColumnType]int{
		flattypes.ColumnTypeBool:   0,
		flattypes.ColumnTypeInt:    1,
		flattypes.ColumnTypeLong:   2,
		flattypes.ColumnTypeDouble: 3,
		flattypes.ColumnTypeString: 4,
	}
	ra, okA := rank[a]
	rb, okB := rank[b]
	if !okA || !okB {
		return flattypes.ColumnTypeString
	}
	if ra > rb {
		return a
	}
	return b
}

// encodeProperties packs feature attributes into the FlatGeobuf property
// layout: a little-endian uint16 column index followed by the value,
// repeated per attribute.
func encodeProperties(props geojson.Properties, s *columnSchema) []byte {
	if len(props) == 0 || len(s.names) == 0 {
		return nil
	}

	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	for _, k := range keys {
		v := props[k]
		if v == nil {
			continue
		}
		name := strings.ToLower(k)
		idx, ok := s.index[name]
		if !ok {
			continue
		}

		var head [2]byte
		binary.LittleEndian.PutUint16(head[:], uint16(idx))
		buf.Write(head[:])
		writeValue(&buf, v, s.types[name])
	}
	return buf.Bytes()
}

func writeValue(buf *bytes.Buffer, v interface{}, t flattypes.ColumnType) {
	switch t {
	case flattypes.ColumnTypeBool:
		b, _ := v.(bool)
		if b {
			buf.WriteByte(1)
		} else {
			buf.WriteByte(0)
		}
	case flattypes.ColumnTypeInt:
		var word [4]byte
		binary.LittleEndian.PutUint32(word[:], uint32(int32(asInt64(v))))
		buf.Write(word[:])
	case flattypes.ColumnTypeLong:
		var word [8]byte
		binary.LittleEndian.PutUint64(word[:], uint64(asInt64(v)))
		buf.Write(word[:])
	case flattypes.ColumnTypeDouble:
		var word [8]byte
		binary.LittleEndian.PutUint64(word[:], math.Float64bits(asFloat64(v)))
		buf.Write(word[:])
	default:
		buf.WriteString(asString(v))
		buf.WriteByte(0) // null terminator
	}
}

// decodeProperties unpacks FlatGeobuf property bytes into attributes,
// lower-casing column names from the file header.
func decodeProperties(data []byte, header *flattypes.Header) geojson.Properties {
	if len(data) == 0 || header == nil {
		return nil
	}

	props := make(geojson.Properties)
	offset := 0
	for offset+2 <= len(data) {
		idx := int(binary.LittleEndian.Uint16(data[offset : offset+2]))
		offset += 2
		if idx >= header.ColumnsLength() {
			break
		}

		var col flattypes.Column
		if !header.Columns(&col, idx) {
			break
		}

		value, n := readValue(data[offset:], col.Type())
		if n == 0 && col.Type() != flattypes.ColumnTypeBool {
			break
		}
		offset += n
		props[strings.ToLower(string(col.Name()))] = value
	}
	return props
}

// readValue reads one value and returns it with the byte count consumed.
// All numeric widths that occur in the wild are accepted even though the
// writer only emits Bool, Int, Long, Double and String.
func readValue(data []byte, t flattypes.ColumnType) (interface{}, int) {
	switch t {
	case flattypes.ColumnTypeBool:
		if len(data) < 1 {
			return nil, 0
		}
		return data[0] != 0, 1
	case flattypes.ColumnTypeByte:
		if len(data) < 1 {
			return nil, 0
		}
		return int8(data[0]), 1
	case flattypes.ColumnTypeUByte:
		if len(data) < 1 {
			return nil, 0
		}
		return data[0], 1
	case flattypes.ColumnTypeShort:
		if len(data) < 2 {
			return nil, 0
		}
		return int16(binary.LittleEndian.Uint16(data)), 2
	case flattypes.ColumnTypeUShort:
		if len(data) < 2 {
			return nil, 0
		}
		return binary.LittleEndian.Uint16(data), 2
	case flattypes.ColumnTypeInt:
		if len(data) < 4 {
			return nil, 0
		}
		return int32(binary.LittleEndian.Uint32(data)), 4
	case flattypes.ColumnTypeUInt:
		if len(data) < 4 {
			return nil, 0
		}
		return binary.LittleEndian.Uint32(data), 4
	case flattypes.ColumnTypeLong:
		if len(data) < 8 {
			return nil, 0
		}
		return int64(binary.LittleEndian.Uint64(data)), 8
	case flattypes.ColumnTypeULong:
		if len(data) < 8 {
			return nil, 0
		}
		return binary.LittleEndian.Uint64(data), 8
	case flattypes.ColumnTypeFloat:
		if len(data) < 4 {
			return nil, 0
		}
		return math.Float32frombits(binary.LittleEndian.Uint32(data)), 4
	case flattypes.ColumnTypeDouble:
		if len(data) < 8 {
			return nil, 0
		}
		return math.Float64frombits(binary.LittleEndian.Uint64(data)), 8
	case flattypes.ColumnTypeString, flattypes.ColumnTypeDateTime, flattypes.ColumnTypeJson:
		end := bytes.IndexByte(data, 0)
		if end == -1 {
			return string(data), len(data)
		}
		return string(data[:end]), end + 1
	default:
		return nil, 0
	}
}

// Numeric conversion helpers for attribute values of mixed provenance.

func asInt64(v interface{}) int64 {
	switch n := v.(type) {
	case int:
		return int64(n)
	case int32:
		return int64(n)
	case int64:
		return n
	case uint32:
		return int64(n)
	case uint64:
		return int64(n)
	case float32:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return 0
	}
}

func asFloat64(v interface{}) float64 {
	switch n := v.(type) {
	case float32:
		return float64(n)
	case float64:
		return n
	case int:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	default:
		return 0
	}
}

func asString(v interface{}) string {
	switch s := v.(type) {
	case string:
		return s
	case []byte:
		return string(s)
	case nil:
		return ""
	default:
		// A column promoted to String can still carry the original
		// numeric or boolean values of earlier features.
		return fmt.Sprint(s)
	}
}
