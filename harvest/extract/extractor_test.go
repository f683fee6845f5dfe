package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractFromCodeBlock(t *testing.T) {
	e := New()
	page := Page{
		CodeBlocks: []string{"vmess://abc\nvless://xyz"},
	}

	r := e.Extract(page)

	assert.Equal(t, []string{"vmess://abc"}, r.Protocol("vmess"))
	assert.Equal(t, []string{"vless://xyz"}, r.Protocol("vless"))
	assert.ElementsMatch(t, []string{"vmess://abc", "vless://xyz"}, r.All())
	assert.Equal(t, 2, r.Len())
}

func TestExtractStripsBacktickFencing(t *testing.T) {
	e := New()
	page := Page{
		CodeBlocks: []string{"```\nvmess://fenced\n```"},
	}

	r := e.Extract(page)

	assert.Equal(t, []string{"vmess://fenced"}, r.Protocol("vmess"))
}

func TestExtractWordBoundary(t *testing.T) {
	e := New()

	// A scheme embedded in a larger token must not match; a scheme after a
	// non-word character or at start of text must.
	page := Page{Messages: []string{
		"xvmess://not-a-config",
		"_vmess://not-a-config-either",
		"see vmess://good1 here",
		"vmess://good2",
		"(vmess://good3)",
	}}

	r := e.Extract(page)

	assert.ElementsMatch(t,
		[]string{"vmess://good1", "vmess://good2", "vmess://good3)"},
		r.Protocol("vmess"))
}

func TestExtractStopsAtWhitespaceAndAngleBrackets(t *testing.T) {
	e := New()
	page := Page{Messages: []string{"ss://abc<br>ss://def next"}}

	r := e.Extract(page)

	assert.ElementsMatch(t, []string{"ss://abc", "ss://def"}, r.Protocol("ss"))
}

func TestExtractNoCrossProtocolLeakage(t *testing.T) {
	e := New()
	page := Page{Messages: []string{"hysteria2://h2entry hysteria://h1entry"}}

	r := e.Extract(page)

	assert.Equal(t, []string{"hysteria://h1entry"}, r.Protocol("hysteria"))
	assert.Equal(t, []string{"hysteria2://h2entry"}, r.Protocol("hysteria2"))
}

func TestExtractUnionsBothPopulations(t *testing.T) {
	e := New()
	page := Page{
		CodeBlocks: []string{"trojan://from-code"},
		Messages:   []string{"trojan://from-body trojan://from-code"},
	}

	r := e.Extract(page)

	assert.ElementsMatch(t, []string{"trojan://from-code", "trojan://from-body"}, r.Protocol("trojan"))
}

func TestExtractEmptyPage(t *testing.T) {
	e := New()

	r := e.Extract(Page{Messages: []string{"nothing to see"}})

	require.True(t, r.Empty())
	for _, tag := range Protocols {
		assert.Empty(t, r.Protocol(tag))
	}
}
