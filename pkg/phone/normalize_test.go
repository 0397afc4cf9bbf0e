package phone

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeE164(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"already e164", "+919876543210", "+919876543210"},
		{"national with spaces", "098765 43210", "+919876543210"},
		{"formatted with dashes", "+91-98765-43210", "+919876543210"},
		{"surrounding whitespace", "  +919876543210  ", "+919876543210"},
		{"us number keeps country", "+1 415 555 2671", "+14155552671"},
		{"unparseable returned trimmed", "  not-a-number  ", "not-a-number"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeE164(tt.in))
		})
	}
}
