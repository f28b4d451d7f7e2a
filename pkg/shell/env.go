package shell

import (
	"os"
	"regexp"
	"strings"
)

var envRe = regexp.MustCompile(`\${([^}{]+)}`)

// ReplaceEnvVars expands ${NAME} and ${NAME:default} references from the
// process environment. Unset variables without a default are left as is.
func ReplaceEnvVars(text string) string {
	return envRe.ReplaceAllStringFunc(text, func(match string) string {
		key := match[2 : len(match)-1]

		def, hasDef := "", false
		if i := strings.IndexByte(key, ':'); i > 0 {
			key, def = key[:i], key[i+1:]
			hasDef = true
		}

		if value, ok := os.LookupEnv(key); ok {
			return value
		}
		if hasDef {
			return def
		}
		return match
	})
}
