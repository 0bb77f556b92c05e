package cvbridge

import "errors"

// ErrUnavailable is returned by the constructors when the binary was built
// without the gocv tag.
var ErrUnavailable = errors.New("opencv support not compiled in (build with -tags gocv)")
