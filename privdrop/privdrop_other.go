//go:build !linux

package privdrop

func Drop() error {
	return ErrUnsupported
}

func Effective() (uint64, error) {
	return 0, ErrUnsupported
}
