// Package rterrors defines the typed error taxonomy shared across the
// rainbow table core: build, generation, storage and query failures.
// None of these are retried by the core; they are surfaced to the caller
// as soon as they happen.
package rterrors

import "fmt"

// BuildError reports an invalid Context configuration.
type BuildError struct {
	Kind string
	Bits uint8
}

func (e *BuildError) Error() string {
	switch e.Kind {
	case "space_too_large":
		return fmt.Sprintf("search space requires %d bits, exceeds 64", e.Bits)
	case "max_len_exceeded":
		return "max password length exceeds the implementation limit"
	case "charset_too_long":
		return "charset exceeds the implementation limit"
	case "charset_duplicate":
		return "charset contains a duplicate character"
	case "chain_too_short":
		return "chain length must be at least 2"
	default:
		return "invalid rainbow table context"
	}
}

// SpaceTooLarge reports that N overflows 2^64.
func SpaceTooLarge(bits uint8) error {
	return &BuildError{Kind: "space_too_large", Bits: bits}
}

// MaxLenExceeded reports L > L_max.
func MaxLenExceeded() error {
	return &BuildError{Kind: "max_len_exceeded"}
}

// CharsetTooLong reports |Sigma| > MaxCharsetLengthAllowed.
func CharsetTooLong() error {
	return &BuildError{Kind: "charset_too_long"}
}

// CharsetDuplicate reports a repeated character in the charset, which
// would break the counter<->password bijection.
func CharsetDuplicate() error {
	return &BuildError{Kind: "charset_duplicate"}
}

// ChainTooShort reports a chain length too small for a chain to cover
// at least one reduce/hash step.
func ChainTooShort() error {
	return &BuildError{Kind: "chain_too_short"}
}

// GenerationError reports a failure during chain generation.
type GenerationError struct {
	Kind string
	Msg  string
}

func (e *GenerationError) Error() string {
	switch e.Kind {
	case "device":
		return fmt.Sprintf("device error: %s", e.Msg)
	case "out_of_memory":
		return "allocator failure while preallocating the filtration map"
	default:
		return fmt.Sprintf("generation error: %s", e.Msg)
	}
}

// Device wraps a GPU/backend dispatch failure.
func Device(msg string) error {
	return &GenerationError{Kind: "device", Msg: msg}
}

// OutOfMemory reports a preallocation failure.
func OutOfMemory() error {
	return &GenerationError{Kind: "out_of_memory"}
}

// StorageError reports an I/O or framing failure.
type StorageError struct {
	Kind string
	Msg  string
}

func (e *StorageError) Error() string {
	switch e.Kind {
	case "corrupt":
		return fmt.Sprintf("corrupt table file: %s", e.Msg)
	case "extension_mismatch":
		return fmt.Sprintf("extension mismatch: %s", e.Msg)
	case "empty_directory":
		return "no table found in the given directory"
	case "mixed_extensions":
		return "all tables in the directory should be of the same type"
	case "inconsistent_ctx":
		return fmt.Sprintf("inconsistent table contexts: %s", e.Msg)
	default:
		return fmt.Sprintf("storage error: %s", e.Msg)
	}
}

func Corrupt(msg string) error          { return &StorageError{Kind: "corrupt", Msg: msg} }
func ExtensionMismatch(msg string) error { return &StorageError{Kind: "extension_mismatch", Msg: msg} }
func EmptyDirectory() error              { return &StorageError{Kind: "empty_directory"} }
func MixedExtensions() error             { return &StorageError{Kind: "mixed_extensions"} }
func InconsistentContext(msg string) error {
	return &StorageError{Kind: "inconsistent_ctx", Msg: msg}
}

// Storage wraps a plain I/O failure (open, read, write, mmap) that
// doesn't fit one of the more specific storage error kinds.
func Storage(msg string) error { return &StorageError{Kind: "io", Msg: msg} }

// QueryError reports a malformed query, such as an invalid hex digest.
type QueryError struct {
	Msg string
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query error: %s", e.Msg)
}

// MalformedDigest reports that the provided digest is not valid hex.
func MalformedDigest(msg string) error {
	return &QueryError{Msg: msg}
}
