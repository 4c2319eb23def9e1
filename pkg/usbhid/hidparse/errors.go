package hidparse

import "errors"

// Sentinel errors returned by ParseDescriptor and GetCollectionDescription.
// ErrStackUnderflow and ErrUnfinishedNesting never fail ParseDescriptor on
// their own (spec.md 7 marks both warning-class); they surface instead
// through PreparsedData.Warnings, identified with errors.Is the same way.
var (
	// ErrDescriptorTruncated is returned when a short item's prefix byte
	// announces more payload bytes than remain in the input.
	ErrDescriptorTruncated = errors.New("hidparse: descriptor truncated mid-item")

	// ErrReservedItemType is returned for the long-item prefix (0xFE) or
	// any other item whose type field is the reserved type (3).
	ErrReservedItemType = errors.New("hidparse: reserved or long item type")

	// ErrStackOverflow is returned when a Push item is seen after the
	// global state stack has reached its configured depth limit.
	ErrStackOverflow = errors.New("hidparse: global item stack overflow")

	// ErrStackUnderflow marks a Pop or End Collection seen with no
	// matching Push/Collection. This is warning-class (spec.md 7): the
	// item is treated as a no-op and the condition is recorded in
	// PreparsedData.Warnings rather than failing ParseDescriptor.
	ErrStackUnderflow = errors.New("hidparse: global item stack underflow")

	// ErrUsageOverflow is returned when the number of usages collected
	// for a single Main item exceeds the parser's configured limit.
	ErrUsageOverflow = errors.New("hidparse: too many usages for a single item")

	// ErrAllocFailure is returned when the configured Allocator cannot
	// satisfy a request for the preparsed data blob.
	ErrAllocFailure = errors.New("hidparse: allocator failed to provide memory")

	// ErrUnfinishedNesting marks a descriptor that ended with one or more
	// Collection items never closed, or global state never popped. Like
	// ErrStackUnderflow this is warning-class: ParseDescriptor still
	// builds and returns the preparsed data.
	ErrUnfinishedNesting = errors.New("hidparse: unfinished collection nesting")

	// ErrUnknownTag is returned for a recognized item type whose tag
	// number does not correspond to any item this parser understands.
	ErrUnknownTag = errors.New("hidparse: unknown item tag")

	// ErrNoCollection is returned when a Main item appears before any
	// Collection has been opened.
	ErrNoCollection = errors.New("hidparse: main item outside any collection")

	// ErrDelimiterUnsupported is returned when a descriptor uses a Usage
	// Delimiter item. The reference parser aborts rather than opening an
	// alternate usage set, and so does this one.
	ErrDelimiterUnsupported = errors.New("hidparse: usage delimiter sets are not supported")

	// ErrInvalidBlob is returned by GetCollectionDescription when the
	// supplied PreparsedData was not produced by ParseDescriptor, or has
	// been corrupted.
	ErrInvalidBlob = errors.New("hidparse: preparsed data blob is invalid")
)
