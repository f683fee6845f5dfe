package extract

import (
	"regexp"
	"sort"
)

// Protocols is the fixed set of recognized URI schemes, in report order.
var Protocols = []string{
	"vmess",
	"vless",
	"trojan",
	"hysteria",
	"hysteria2",
	"tuic",
	"ss",
	"wireguard",
	"warp",
}

// Page carries the two text populations harvested from one channel page:
// the contents of code/pre blocks and the general message bodies.
type Page struct {
	CodeBlocks []string
	Messages   []string
}

// Result holds the entries matched on one page, keyed by protocol tag,
// plus the union across all protocols.
type Result struct {
	perProtocol map[string]map[string]struct{}
	all         map[string]struct{}
}

// fenceRe strips markdown backtick fencing (1-3 backticks) from the start
// and end of each line inside a code block.
var fenceRe = regexp.MustCompile("(?m)^`{1,3}|`{1,3}$")

// Extractor matches configuration URIs with one independent pattern per
// protocol, so a hit for one scheme can never leak into another bucket.
type Extractor struct {
	patterns map[string]*regexp.Regexp
}

// New compiles the per-protocol matchers.
//
// Go's regexp has no lookbehind; each pattern anchors on start-of-text or a
// non-word character and captures the URI in group 1, which is equivalent
// to a (?<![a-zA-Z0-9_]) guard. The body runs until whitespace or an angle
// bracket.
func New() *Extractor {
	patterns := make(map[string]*regexp.Regexp, len(Protocols))
	for _, tag := range Protocols {
		patterns[tag] = regexp.MustCompile(`(?:^|[^0-9A-Za-z_])(` + tag + `://[^\s<>]+)`)
	}
	return &Extractor{patterns: patterns}
}

// Extract matches every protocol against both text populations and unions
// the hits. Matched strings are taken verbatim; no semantic validation is
// performed. An empty result is a normal outcome, not an error.
func (e *Extractor) Extract(page Page) *Result {
	r := newResult()
	for _, block := range page.CodeBlocks {
		e.matchInto(r, fenceRe.ReplaceAllString(block, ""))
	}
	for _, body := range page.Messages {
		e.matchInto(r, body)
	}
	return r
}

func (e *Extractor) matchInto(r *Result, text string) {
	for tag, re := range e.patterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			r.add(tag, m[1])
		}
	}
}

func newResult() *Result {
	r := &Result{
		perProtocol: make(map[string]map[string]struct{}, len(Protocols)),
		all:         make(map[string]struct{}),
	}
	for _, tag := range Protocols {
		r.perProtocol[tag] = make(map[string]struct{})
	}
	return r
}

func (r *Result) add(tag, entry string) {
	r.perProtocol[tag][entry] = struct{}{}
	r.all[entry] = struct{}{}
}

// Protocol returns the entries matched for one protocol tag, sorted.
func (r *Result) Protocol(tag string) []string {
	return sortedKeys(r.perProtocol[tag])
}

// All returns the union of entries across every protocol, sorted.
func (r *Result) All() []string {
	return sortedKeys(r.all)
}

// Len reports the number of distinct entries on the page.
func (r *Result) Len() int {
	return len(r.all)
}

// Empty reports whether nothing matched.
func (r *Result) Empty() bool {
	return len(r.all) == 0
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for entry := range set {
		out = append(out, entry)
	}
	sort.Strings(out)
	return out
}
