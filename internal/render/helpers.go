package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/aymerick/raymond"
	"github.com/yuin/goldmark"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// layoutKey is the private data frame entry holding layout state for one render.
const layoutKey = "_layout"

const (
	modeReplace = "replace"
	modeAppend  = "append"
	modePrepend = "prepend"
)

type contentAction struct {
	mode string
	body string
}

// layoutState collects content blocks declared inside extend.
type layoutState struct {
	mu      sync.Mutex
	actions map[string][]contentAction
}

func (s *layoutState) add(name string, a contentAction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.actions[name] = append(s.actions[name], a)
}

func (s *layoutState) apply(name, fallback string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := fallback
	for _, a := range s.actions[name] {
		switch a.mode {
		case modeAppend:
			out += a.body
		case modePrepend:
			out = a.body + out
		default:
			out = a.body
		}
	}
	return out
}

func stateFrom(options *raymond.Options) *layoutState {
	if s, ok := options.DataFrame().Get(layoutKey).(*layoutState); ok {
		return s
	}
	return nil
}

// helpers returns the helper set for one template; extend needs the
// renderer's partial sources to render layouts.
func (r *Renderer) helpers() map[string]any {
	return map[string]any{
		"extend": func(name string, options *raymond.Options) raymond.SafeString {
			source, ok := r.partials[name]
			if !ok {
				panic(fmt.Errorf("layout %q not found", name))
			}
			frame := options.DataFrame().Copy()
			state := &layoutState{actions: make(map[string][]contentAction)}
			if outer := stateFrom(options); outer != nil {
				outer.mu.Lock()
				for k, v := range outer.actions {
					state.actions[k] = append([]contentAction(nil), v...)
				}
				outer.mu.Unlock()
			}
			frame.Set(layoutKey, state)

			// Evaluated for its content declarations only.
			_ = options.FnData(frame)

			tpl, err := r.parse(source)
			if err != nil {
				panic(fmt.Errorf("layout %q: %w", name, err))
			}
			out, err := tpl.ExecWith(options.Ctx(), frame)
			if err != nil {
				panic(fmt.Errorf("layout %q: %w", name, err))
			}
			return raymond.SafeString(out)
		},
		"content": func(name string, options *raymond.Options) raymond.SafeString {
			state := stateFrom(options)
			if state == nil {
				return ""
			}
			mode := options.HashStr("mode")
			switch mode {
			case modeAppend, modePrepend, modeReplace:
			case "":
				mode = modeReplace
			default:
				panic(fmt.Errorf("content %q: unknown mode %q", name, mode))
			}
			state.add(name, contentAction{mode: mode, body: options.Fn()})
			return ""
		},
		"block": func(name string, options *raymond.Options) raymond.SafeString {
			fallback := options.Fn()
			state := stateFrom(options)
			if state == nil {
				return raymond.SafeString(fallback)
			}
			return raymond.SafeString(state.apply(name, fallback))
		},
		"markdown": func(value any) raymond.SafeString {
			var buf bytes.Buffer
			if err := goldmark.Convert([]byte(raymond.Str(value)), &buf); err != nil {
				panic(fmt.Errorf("markdown: %w", err))
			}
			return raymond.SafeString(buf.String())
		},
		"upper": func(value any) string {
			return cases.Upper(language.Und).String(raymond.Str(value))
		},
		"lower": func(value any) string {
			return cases.Lower(language.Und).String(raymond.Str(value))
		},
		"title": func(value any) string {
			return cases.Title(language.Und).String(raymond.Str(value))
		},
		"json": func(value any) raymond.SafeString {
			data, err := json.Marshal(value)
			if err != nil {
				panic(fmt.Errorf("json: %w", err))
			}
			return raymond.SafeString(data)
		},
	}
}
