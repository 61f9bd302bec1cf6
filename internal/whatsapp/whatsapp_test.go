package whatsapp

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"gitea.jw6.us/james/calllog/internal/schema"
)

func TestRender(t *testing.T) {
	log := schema.CallLog{ContactName: "Alice", PhoneNumber: "+1 555 0100"}

	assert.Equal(t, "Hi Alice, ", Render(DefaultMessage, log))
	assert.Equal(t, "Alice (+1 555 0100), Alice again", Render("{name} ({number}), {name} again", log))
	assert.Equal(t, "no placeholders", Render("no placeholders", log))
	assert.Equal(t, "{Name} stays", Render("{Name} stays", log))
}

func TestNormalizePhone(t *testing.T) {
	testCases := map[string]string{
		"+1 (555) 010-0100": "15550100100",
		"0300 555":          "0300555",
		"abc":               "",
		"٣٤٥12":             "12",
	}
	for in, want := range testCases {
		assert.Equal(t, want, NormalizePhone(in), "input %q", in)
	}
}

func TestEncodeText(t *testing.T) {
	testCases := []struct {
		in   string
		want string
	}{
		{"Hi Alice, ", "Hi%20Alice%2C%20"},
		{"a+b=c&d", "a%2Bb%3Dc%26d"},
		{"it's (fine)!*~", "it's%20(fine)!*~"},
		{"café", "caf%C3%A9"},
		{"line\nbreak", "line%0Abreak"},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.want, EncodeText(tc.in), "input %q", tc.in)
	}
}

func TestLink(t *testing.T) {
	got := Link("+44 20 7946-0958", "Hi Bob, call me")
	assert.Equal(t, "https://wa.me/442079460958?text=Hi%20Bob%2C%20call%20me", got)
}
