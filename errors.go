package stlview

import (
	"errors"
	"strconv"
)

// ErrInvalidMeshData is matched by errors returned when a vertex
// buffer does not describe a whole number of triangles.
var ErrInvalidMeshData = errors.New("invalid mesh data")

// InvalidMeshDataError reports a vertex buffer whose length is not
// a multiple of 9.
type InvalidMeshDataError struct {
	// Len is the length of the offending buffer.
	Len int
}

func (e *InvalidMeshDataError) Error() string {
	return "invalid mesh data: vertex buffer length " + strconv.Itoa(e.Len) +
		" is not a multiple of 9 (" + strconv.Itoa(e.Len%floatsPerTriangle) + " trailing values)"
}

// Is reports true for ErrInvalidMeshData.
func (e *InvalidMeshDataError) Is(target error) bool { return target == ErrInvalidMeshData }

func checkBufferLen(n int) error {
	if n%floatsPerTriangle != 0 {
		return &InvalidMeshDataError{Len: n}
	}
	return nil
}
