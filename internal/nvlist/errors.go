package nvlist

import "errors"

// ErrDecode is wrapped by Unpack when the input is not a well-formed
// encoded list (spec §7 PropDecode).
var ErrDecode = errors.New("nvlist: malformed encoded list")
