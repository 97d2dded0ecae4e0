package auth

import (
	"crypto/rand"
	"math/big"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

// Suffix lengths appended to generated usernames.
const (
	SignupSuffixLen = 5
	OAuthSuffixLen  = 4
)

// GenerateUsername derives "<local-part>-<random base36 suffix>" from an email.
func GenerateUsername(email string, suffixLen int) string {
	local := email
	if at := strings.IndexByte(email, '@'); at >= 0 {
		local = email[:at]
	}
	base := sanitizeUsername(local)
	if base == "" {
		base = "savant"
	}
	return base + "-" + randomBase36(suffixLen)
}

func sanitizeUsername(s string) string {
	var b strings.Builder
	for _, r := range norm.NFD.String(strings.ToLower(s)) {
		switch {
		case unicode.Is(unicode.Mn, r):
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
		case r == '.' || r == '_' || r == '-':
			b.WriteRune(r)
		}
	}
	out := b.String()
	if len(out) > 48 {
		out = out[:48]
	}
	return out
}

func randomBase36(n int) string {
	buf := make([]byte, n)
	max := big.NewInt(int64(len(base36)))
	for i := range buf {
		v, err := rand.Int(rand.Reader, max)
		if err != nil {
			buf[i] = base36[i%len(base36)]
			continue
		}
		buf[i] = base36[v.Int64()]
	}
	return string(buf)
}
