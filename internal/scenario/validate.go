package scenario

import (
	"fmt"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Validate checks numeric bounds on every scenario in the batch. The error
// names the offending scenario index and field.
func (b *Batch) Validate() error {
	for i := range b.Scenarios {
		if err := b.Scenarios[i].Validate(); err != nil {
			return errors.Wrapf(err, "scenario %d (%q)", i, b.Scenarios[i].Name)
		}
	}
	return nil
}

// Validate checks numeric bounds on a single scenario.
func (s *Scenario) Validate() error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s must be %s %s (got %v)",
			fe.Namespace(), fe.Tag(), fe.Param(), fe.Value()))
	}
	return errors.New(strings.Join(msgs, "; "))
}
