package fixer

import "fmt"

// Op names the step of file processing that failed.
type Op string

const (
	OpRead   Op = "read"
	OpParse  Op = "parse"
	OpEncode Op = "encode"
	OpWrite  Op = "write"
)

// FileError carries the offending path of a failed fix cycle.
type FileError struct {
	Path string
	Kind FileKind
	Op   Op
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("failed to %s %s at %s: %v", e.Op, e.Kind, e.Path, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}
