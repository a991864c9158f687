//go:build !unix

package cli

import "os"

func resizes() (<-chan os.Signal, func()) {
	return nil, func() {}
}
