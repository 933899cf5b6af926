package publisher

import "fmt"

// FilesystemError reports a blocked filesystem operation (e.g. permission
// denied while clearing the output tree). Always fatal to the cycle.
type FilesystemError struct {
	Op   string
	Path string
	Err  error
}

func (e *FilesystemError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}
func (e *FilesystemError) Unwrap() error { return e.Err }
