package schema

import (
	"fmt"

	"google.golang.org/protobuf/reflect/protoreflect"
)

func field(m protoreflect.Message, name string) protoreflect.FieldDescriptor {
	fd := m.Descriptor().Fields().ByName(protoreflect.Name(name))
	if fd == nil {
		panic(fmt.Sprintf("schema: %s has no field %q", m.Descriptor().FullName(), name))
	}
	return fd
}

// reader reads fields of a dynamic message by proto name.
type reader struct {
	m protoreflect.Message
}

func (r reader) str(name string) string { return r.m.Get(field(r.m, name)).String() }
func (r reader) i32(name string) int32 { return int32(r.m.Get(field(r.m, name)).Int()) }
func (r reader) i64(name string) int64 { return r.m.Get(field(r.m, name)).Int() }
func (r reader) f64(name string) float64 { return r.m.Get(field(r.m, name)).Float() }
func (r reader) boolean(name string) bool { return r.m.Get(field(r.m, name)).Bool() }
func (r reader) enum(name string) int32 { return int32(r.m.Get(field(r.m, name)).Enum()) }
func (r reader) has(name string) bool { return r.m.Has(field(r.m, name)) }
func (r reader) sub(name string) reader { return reader{r.m.Get(field(r.m, name)).Message()} }
func (r reader) list(name string) protoreflect.List {
	return r.m.Get(field(r.m, name)).List()
}

func (r reader) strs(name string) []string {
	l := r.list(name)
	if l.Len() == 0 {
		return nil
	}
	out := make([]string, l.Len())
	for i := range out {
		out[i] = l.Get(i).String()
	}
	return out
}

func (r reader) i32s(name string) []int32 {
	l := r.list(name)
	if l.Len() == 0 {
		return nil
	}
	out := make([]int32, l.Len())
	for i := range out {
		out[i] = int32(l.Get(i).Int())
	}
	return out
}

func (r reader) i64s(name string) []int64 {
	l := r.list(name)
	if l.Len() == 0 {
		return nil
	}
	out := make([]int64, l.Len())
	for i := range out {
		out[i] = l.Get(i).Int()
	}
	return out
}

func (r reader) msgs(name string) []reader {
	l := r.list(name)
	out := make([]reader, l.Len())
	for i := range out {
		out[i] = reader{l.Get(i).Message()}
	}
	return out
}

// which returns the proto name of the set member of a oneof, or "".
func (r reader) which(oneof string) string {
	od := r.m.Descriptor().Oneofs().ByName(protoreflect.Name(oneof))
	if od == nil {
		return ""
	}
	fd := r.m.WhichOneof(od)
	if fd == nil {
		return ""
	}
	return string(fd.Name())
}

// writer sets fields of a dynamic message by proto name. Zero scalars are
// skipped; proto3 does not distinguish them from unset.
type writer struct {
	m protoreflect.Message
}

func (w writer) set(name string, v protoreflect.Value) { w.m.Set(field(w.m, name), v) }

func (w writer) str(name, v string) {
	if v != "" {
		w.set(name, protoreflect.ValueOfString(v))
	}
}

func (w writer) i32(name string, v int32) {
	if v != 0 {
		w.set(name, protoreflect.ValueOfInt32(v))
	}
}

func (w writer) i64(name string, v int64) {
	if v != 0 {
		w.set(name, protoreflect.ValueOfInt64(v))
	}
}

func (w writer) f64(name string, v float64) {
	if v != 0 {
		w.set(name, protoreflect.ValueOfFloat64(v))
	}
}

func (w writer) boolean(name string, v bool) {
	if v {
		w.set(name, protoreflect.ValueOfBool(v))
	}
}

func (w writer) enum(name string, v int32) {
	if v != 0 {
		w.set(name, protoreflect.ValueOfEnum(protoreflect.EnumNumber(v)))
	}
}

// sub marks a message field present and returns a writer for it.
func (w writer) sub(name string) writer {
	return writer{w.m.Mutable(field(w.m, name)).Message()}
}

func (w writer) strs(name string, vs []string) {
	if len(vs) == 0 {
		return
	}
	l := w.m.Mutable(field(w.m, name)).List()
	for _, v := range vs {
		l.Append(protoreflect.ValueOfString(v))
	}
}

func (w writer) i32s(name string, vs []int32) {
	if len(vs) == 0 {
		return
	}
	l := w.m.Mutable(field(w.m, name)).List()
	for _, v := range vs {
		l.Append(protoreflect.ValueOfInt32(v))
	}
}

func (w writer) i64s(name string, vs []int64) {
	if len(vs) == 0 {
		return
	}
	l := w.m.Mutable(field(w.m, name)).List()
	for _, v := range vs {
		l.Append(protoreflect.ValueOfInt64(v))
	}
}

// appendMsg appends a new element to a repeated message field.
func (w writer) appendMsg(name string) writer {
	l := w.m.Mutable(field(w.m, name)).List()
	v := l.NewElement()
	l.Append(v)
	return writer{v.Message()}
}
