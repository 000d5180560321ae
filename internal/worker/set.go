package worker

import (
	"github.com/go-faster/errors"
)

// Set is the ordered list of workers available to one scenario.
type Set struct {
	workers []Worker
}

// Assemble builds the worker list for a scenario: one remote worker per
// address plus abs(spawnLocal) local workers. A negative spawnLocal puts
// the local workers in front of the remote ones, a positive one behind
// them.
func Assemble(remotes []string, spawnLocal int32, newLocal func() Worker, dial func(addr string) (Worker, error)) (*Set, error) {
	locals := int(spawnLocal)
	if locals < 0 {
		locals = -locals
	}

	s := &Set{workers: make([]Worker, 0, len(remotes)+locals)}
	addLocals := func() {
		for i := 0; i < locals; i++ {
			s.workers = append(s.workers, newLocal())
		}
	}

	if spawnLocal < 0 {
		addLocals()
	}
	for _, addr := range remotes {
		w, err := dial(addr)
		if err != nil {
			_ = s.Close()
			return nil, err
		}
		s.workers = append(s.workers, w)
	}
	if spawnLocal > 0 {
		addLocals()
	}
	return s, nil
}

// Len returns the number of workers.
func (s *Set) Len() int { return len(s.workers) }

// Workers returns the workers in order.
func (s *Set) Workers() []Worker { return s.workers }

// Split hands the first numServers workers to servers and the next
// numClients to clients. Surplus workers stay unused.
func (s *Set) Split(numServers, numClients int) (servers, clients []Worker, err error) {
	if numServers < 0 || numClients < 0 {
		return nil, nil, errors.Errorf("negative worker count (servers=%d, clients=%d)", numServers, numClients)
	}
	if need := numServers + numClients; need > len(s.workers) {
		return nil, nil, errors.Errorf("not enough workers: need %d (%d servers + %d clients), have %d",
			need, numServers, numClients, len(s.workers))
	}
	return s.workers[:numServers], s.workers[numServers : numServers+numClients], nil
}

// Close closes every worker and returns the first error.
func (s *Set) Close() error {
	var first error
	for _, w := range s.workers {
		if err := w.Close(); err != nil && first == nil {
			first = errors.Wrapf(err, "close %s", w.Address())
		}
	}
	return first
}
