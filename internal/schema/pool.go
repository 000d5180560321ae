// Package schema holds the protobuf descriptor pool for scenario and worker
// messages and translates scenario JSON into a scenario.Batch through it.
package schema

import (
	"strings"
	"sync"

	"github.com/go-faster/errors"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/dynamicpb"
)

// TypeURLPrefix is the prefix used when naming messages by type URL.
const TypeURLPrefix = "type.googleapis.com"

// TypeURL returns the type URL of a message full name.
func TypeURL(fullName string) string {
	return TypeURLPrefix + "/" + fullName
}

// Pool resolves message descriptors by full name or type URL.
type Pool struct {
	files *protoregistry.Files
}

var defaultPool = sync.OnceValue(func() *Pool {
	p, err := NewPool()
	if err != nil {
		panic(err)
	}
	return p
})

// DefaultPool returns the process-wide pool built from the scenario schema.
func DefaultPool() *Pool {
	return defaultPool()
}

// NewPool builds a pool holding the scenario schema file.
func NewPool() (*Pool, error) {
	fd, err := protodesc.NewFile(scenarioFile(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "build scenario descriptor")
	}

	files := new(protoregistry.Files)
	if err := files.RegisterFile(fd); err != nil {
		return nil, errors.Wrap(err, "register scenario descriptor")
	}
	return &Pool{files: files}, nil
}

// FindMessage resolves a message descriptor from a full name or a type URL
// of the form "type.googleapis.com/grpc.testing.Scenarios".
func (p *Pool) FindMessage(nameOrURL string) (protoreflect.MessageDescriptor, error) {
	name := nameOrURL
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		name = name[i+1:]
	}

	d, err := p.files.FindDescriptorByName(protoreflect.FullName(name))
	if err != nil {
		return nil, errors.Wrapf(err, "resolve %q", nameOrURL)
	}
	md, ok := d.(protoreflect.MessageDescriptor)
	if !ok {
		return nil, errors.Errorf("%q is not a message", nameOrURL)
	}
	return md, nil
}

// New returns an empty dynamic message of the named type.
func (p *Pool) New(nameOrURL string) (*dynamicpb.Message, error) {
	md, err := p.FindMessage(nameOrURL)
	if err != nil {
		return nil, err
	}
	return dynamicpb.NewMessage(md), nil
}

// MustNew is like New but panics on unknown names. Only for names declared
// in this package.
func (p *Pool) MustNew(name string) *dynamicpb.Message {
	m, err := p.New(name)
	if err != nil {
		panic(err)
	}
	return m
}
