package utils

import (
	"crypto/md5"
	"fmt"
)

// HashBytes returns a hex md5 digest over the concatenation of the given
// byte slices. Used as a dedup cache key, not for anything security related.
func HashBytes(parts ...[]byte) string {
	h := md5.New()
	for _, p := range parts {
		h.Write(p)
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}
