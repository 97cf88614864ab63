package utils

import (
	"crypto/md5"
	"encoding/hex"
	"net/url"
	"strings"
)

const gravatarBaseURL = "https://www.gravatar.com/avatar/"

// GravatarURL derives the avatar for an email address: 200px, pg rated,
// falling back to the "mystery person" image.
func GravatarURL(email string) string {
	sum := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(email))))
	query := url.Values{}
	query.Set("s", "200")
	query.Set("r", "pg")
	query.Set("d", "mm")
	return gravatarBaseURL + hex.EncodeToString(sum[:]) + "?" + query.Encode()
}
