package drr

import "errors"

// ErrBadMagic is returned by DetectByteOrder when the first BEGIN
// record's magic number matches neither the native nor the
// byte-swapped expected value.
var ErrBadMagic = errors.New("drr: invalid stream (bad magic number)")
