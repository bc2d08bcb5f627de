package state

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf16"

	"golang.org/x/text/encoding/charmap"

	appLog "vitalis/internal/log"
	"vitalis/internal/model"
)

// compact is the wire shape. Field order matters: it is the key order of
// the encoded JSON.
type compact struct {
	S model.Selections `json:"s"`
	F compactFilters   `json:"f"`
	D *string          `json:"d"`
	V View             `json:"v"`
	Q string           `json:"q"`
}

// compactFilters keeps only non-empty facets, keyed by facet code.
type compactFilters struct {
	S []string `json:"s,omitempty"`
	A []string `json:"a,omitempty"`
	M []string `json:"m,omitempty"`
	K []string `json:"k,omitempty"`
}

// decoded mirrors compact with every field optional.
type decoded struct {
	S map[string]model.ID `json:"s"`
	F *struct {
		S []string `json:"s"`
		A []string `json:"a"`
		M []string `json:"m"`
		K []string `json:"k"`
	} `json:"f"`
	D *string `json:"d"`
	V *string `json:"v"`
	Q *string `json:"q"`
}

// Encode produces the share token: JSON -> Latin-1 bytes -> base64 ->
// percent-encoding. Runes outside Latin-1 are written as JSON \u escapes
// first, so the token is plain ASCII either way.
func Encode(st State) (string, error) {
	c := compact{
		S: st.Selections.Clone(),
		D: st.Day,
		V: st.View,
		Q: st.Query,
	}
	if c.V == "" {
		c.V = ViewList
	}
	c.F.S = nonEmpty(st.Filters[model.FacetLanguage])
	c.F.A = nonEmpty(st.Filters[model.FacetSubject])
	c.F.M = nonEmpty(st.Filters[model.FacetAudience])
	c.F.K = nonEmpty(st.Filters[model.FacetLevel])

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(c); err != nil {
		return "", fmt.Errorf("state: marshal: %w", err)
	}
	payload := escapeAboveLatin1(strings.TrimSuffix(buf.String(), "\n"))

	latin1, err := charmap.ISO8859_1.NewEncoder().String(payload)
	if err != nil {
		return "", fmt.Errorf("state: latin-1: %w", err)
	}

	return url.QueryEscape(base64.StdEncoding.EncodeToString([]byte(latin1))), nil
}

func nonEmpty(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	return values
}

// escapeAboveLatin1 rewrites runes above U+00FF as \uXXXX (UTF-16 pairs
// for astral runes). Such runes only occur inside JSON strings, where the
// escape is equivalent.
func escapeAboveLatin1(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r <= 0xFF {
			b.WriteRune(r)
			continue
		}
		if r > 0xFFFF {
			hi, lo := utf16.EncodeRune(r)
			fmt.Fprintf(&b, `\u%04x\u%04x`, hi, lo)
			continue
		}
		fmt.Fprintf(&b, `\u%04x`, r)
	}
	return b.String()
}

// Decode parses a share token. ok is false for anything malformed; the
// caller then falls back to Default. Missing fields take their defaults.
func Decode(token string) (State, bool) {
	st, err := decode(token)
	if err != nil {
		appLog.Warn("failed to decode state token", "err", err)
		return State{}, false
	}
	return st, true
}

func decode(token string) (State, error) {
	unescaped, err := url.PathUnescape(strings.TrimSpace(token))
	if err != nil {
		return State{}, fmt.Errorf("percent-decoding: %w", err)
	}
	raw, err := decodeBase64(unescaped)
	if err != nil {
		return State{}, fmt.Errorf("base64: %w", err)
	}
	text, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
	if err != nil {
		return State{}, fmt.Errorf("latin-1: %w", err)
	}
	text = bytes.TrimSpace(text)
	if len(text) == 0 || text[0] != '{' {
		return State{}, errors.New("payload is not a JSON object")
	}

	var d decoded
	if err := json.Unmarshal(text, &d); err != nil {
		return State{}, fmt.Errorf("json: %w", err)
	}

	st := Default()
	for slot, id := range d.S {
		if id == "" {
			continue
		}
		st.Selections[slot] = id
	}
	if d.F != nil {
		st.Filters[model.FacetLanguage] = unique(d.F.S)
		st.Filters[model.FacetSubject] = unique(d.F.A)
		st.Filters[model.FacetAudience] = unique(d.F.M)
		st.Filters[model.FacetLevel] = unique(d.F.K)
	}
	if d.D != nil && *d.D != "" {
		day := *d.D
		st.Day = &day
	}
	if d.V != nil && *d.V != "" {
		v := View(*d.V)
		if !v.Valid() {
			return State{}, fmt.Errorf("unknown view %q", *d.V)
		}
		st.View = v
	}
	if d.Q != nil {
		st.Query = *d.Q
	}
	return st, nil
}

func decodeBase64(s string) ([]byte, error) {
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r', '\f':
			return -1
		}
		return r
	}, s)
	if s == "" {
		return nil, errors.New("empty token")
	}
	if b, err := base64.StdEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	// Tolerate stripped padding, as atob does.
	return base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
}

func unique(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
