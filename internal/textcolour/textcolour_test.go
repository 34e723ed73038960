package textcolour

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderStripsCodesWhenDisabled(t *testing.T) {
	prev := Enabled
	Enabled = false
	defer func() { Enabled = prev }()

	assert.Equal(t, "hello world", Render("&ehello &fworld"))
}

func TestRenderLeavesPlainTextAlone(t *testing.T) {
	prev := Enabled
	Enabled = false
	defer func() { Enabled = prev }()

	assert.Equal(t, "no codes here", Render("no codes here"))
}

func TestRenderWrapsColouredSegmentsWhenEnabled(t *testing.T) {
	prev := Enabled
	Enabled = true
	defer func() { Enabled = prev }()

	out := Render("&cred")
	assert.Contains(t, out, "red")
	assert.NotEqual(t, "red", out, "expected ANSI escapes to wrap the coloured segment")
}

func TestRenderUnknownCodeIsKeptLiteral(t *testing.T) {
	prev := Enabled
	Enabled = false
	defer func() { Enabled = prev }()

	assert.Equal(t, "&ztext", Render("&ztext"))
}
