package render

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/oklog/ulid/v2"
	"github.com/vango-dev/statesvc/internal/errors"
	"github.com/vango-dev/statesvc/pkg/statesvc"
)

// DefaultPayloadVar is the global the bootstrap script assigns props to.
const DefaultPayloadVar = "__STATESVC_PROPS__"

var jsIdent = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

// ValidPayloadVar reports whether name can be used as the payload global.
func ValidPayloadVar(name string) bool {
	return jsIdent.MatchString(name)
}

// BootstrapScript returns a self-removing inline script that assigns the
// JSON-encoded props to the global varName, so client boot code can
// re-mount the tree with the same props the server rendered.
func BootstrapScript(varName string, props statesvc.Props) (string, error) {
	if !ValidPayloadVar(varName) {
		return "", errors.New("E130").WithDetailf("payload variable %q", varName)
	}
	if props == nil {
		props = statesvc.Props{}
	}

	// json.Marshal escapes <, > and & so the payload cannot close the tag.
	payload, err := json.Marshal(props)
	if err != nil {
		return "", errors.New("E131").WithDetail("encode payload").Wrap(err)
	}

	id := "statesvc-script-" + strings.ToLower(ulid.Make().String())

	var b strings.Builder
	b.WriteString(`<script id="`)
	b.WriteString(id)
	b.WriteString(`" type="application/javascript">var `)
	b.WriteString(varName)
	b.WriteString("=")
	b.Write(payload)
	b.WriteString(`;(function(){var s=document.getElementById("`)
	b.WriteString(id)
	b.WriteString(`");s.parentNode.removeChild(s);})();</script>`)
	return b.String(), nil
}

// InjectHead inserts snippet before the first </head>. Documents without a
// head are returned unchanged.
func InjectHead(html, snippet string) string {
	i := strings.Index(html, "</head>")
	if i < 0 {
		return html
	}
	return html[:i] + snippet + html[i:]
}

// ExtractPayload finds the bootstrap assignment for varName in a rendered
// document and decodes its props.
func ExtractPayload(html, varName string) (statesvc.Props, error) {
	marker := "var " + varName + "="
	start := strings.Index(html, marker)
	if start < 0 {
		return nil, errors.New("E131").WithDetailf("payload %q not found", varName)
	}
	rest := html[start+len(marker):]

	dec := json.NewDecoder(strings.NewReader(rest))
	var props statesvc.Props
	if err := dec.Decode(&props); err != nil {
		return nil, errors.New("E131").WithDetail("decode payload").Wrap(err)
	}
	return props, nil
}

// DecodePayload parses a JSON props payload.
func DecodePayload(data []byte) (statesvc.Props, error) {
	var props statesvc.Props
	if err := json.Unmarshal(data, &props); err != nil {
		return nil, errors.New("E131").WithDetail("decode payload").Wrap(err)
	}
	if props == nil {
		props = statesvc.Props{}
	}
	return props, nil
}
