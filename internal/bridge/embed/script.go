package embed

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"net/http"
	"text/template"
	"time"
)

// DefaultFormTimeout bounds how long the script waits for the sign-in form.
const DefaultFormTimeout = 15 * time.Second

//go:embed bridge.js.tmpl
var bridgeSource string

var bridgeTemplate = template.Must(template.New("bridge.js").Parse(bridgeSource))

type scriptData struct {
	Origins   string
	TimeoutMS int64
}

// Script renders the bridge script with the policy's origins baked in.
func (p *Policy) Script(formTimeout time.Duration) ([]byte, error) {
	if formTimeout <= 0 {
		formTimeout = DefaultFormTimeout
	}

	// json.Marshal escapes <, > and &, so the list is safe inside a script.
	origins, err := json.Marshal(p.Origins())
	if err != nil {
		return nil, err
	}
	if len(p.origins) == 0 {
		origins = []byte("[]")
	}

	var buf bytes.Buffer
	err = bridgeTemplate.Execute(&buf, scriptData{
		Origins:   string(origins),
		TimeoutMS: formTimeout.Milliseconds(),
	})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ScriptHandler serves the rendered script. It is rendered once up front.
func (p *Policy) ScriptHandler(formTimeout time.Duration) (http.Handler, error) {
	body, err := p.Script(formTimeout)
	if err != nil {
		return nil, err
	}
	csp := "frame-ancestors " + p.FrameAncestors()

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/javascript; charset=utf-8")
		w.Header().Set("Content-Security-Policy", csp)
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Cache-Control", "public, max-age=300")
		_, _ = w.Write(body)
	}), nil
}
