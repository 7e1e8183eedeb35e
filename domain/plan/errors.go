package plan

import "errors"

// Domain errors for plan decoding and validation.
var (
	// ErrMalformed indicates the plan text is not well-formed tagged text.
	ErrMalformed = errors.New("malformed plan text")

	// ErrEmptyPlan indicates the plan holds no directives.
	ErrEmptyPlan = errors.New("empty plan")

	// ErrUnknownTag indicates an element the codec does not define.
	ErrUnknownTag = errors.New("unknown plan tag")

	// ErrMissingTag indicates a required container element is absent.
	ErrMissingTag = errors.New("missing plan tag")

	// ErrMissingAttribute indicates a required attribute is absent or empty.
	ErrMissingAttribute = errors.New("missing plan attribute")

	// ErrInvalidDirective indicates an attribute value is out of contract.
	ErrInvalidDirective = errors.New("invalid directive")

	// ErrDuplicateDirective indicates two directives of the same kind.
	ErrDuplicateDirective = errors.New("duplicate directive")
)
