package schema

import (
	"github.com/go-faster/errors"
	"google.golang.org/protobuf/reflect/protoreflect"
)

// checkEnums rejects enum fields holding numbers the schema does not
// declare. protojson accepts any number for open enums.
func checkEnums(m protoreflect.Message) error {
	var err error
	m.Range(func(fd protoreflect.FieldDescriptor, v protoreflect.Value) bool {
		switch {
		case fd.IsList():
			l := v.List()
			for i := 0; i < l.Len() && err == nil; i++ {
				err = checkValue(fd, l.Get(i))
			}
		case fd.IsMap():
			// The schema has no maps.
		default:
			err = checkValue(fd, v)
		}
		return err == nil
	})
	return err
}

func checkValue(fd protoreflect.FieldDescriptor, v protoreflect.Value) error {
	switch fd.Kind() {
	case protoreflect.EnumKind:
		n := v.Enum()
		if fd.Enum().Values().ByNumber(n) == nil {
			return errors.Errorf("invalid value for enum field %s: %d", fd.FullName(), n)
		}
	case protoreflect.MessageKind, protoreflect.GroupKind:
		return checkEnums(v.Message())
	}
	return nil
}
