package discovery

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateURL(t *testing.T) {
	valid := []string{
		"https://example.com/",
		"http://example.com/path?q=1",
		"https://sub.example.com:8443/a/b",
	}
	for _, u := range valid {
		assert.NoError(t, ValidateURL(u), u)
	}

	invalid := []string{
		"",
		"example.com/no-scheme",
		"/relative/path",
		"ftp://example.com/file",
		"mailto:someone@example.com",
		"https://",
	}
	for _, u := range invalid {
		assert.Error(t, ValidateURL(u), u)
	}
}
