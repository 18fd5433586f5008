//go:build !unix

package storage

func isEXDEV(error) bool {
	return false
}
