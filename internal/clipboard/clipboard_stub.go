//go:build !(linux || freebsd || openbsd || netbsd || dragonfly)

package clipboard

func WritePNG([]byte) error { return ErrUnsupported }

func ReadImageData() ([]byte, error) { return nil, ErrUnsupported }

func ReadText() (string, error) { return "", ErrUnsupported }
