package template

import (
	"errors"
	"strings"
	"testing"
)

func TestRender(t *testing.T) {
	tests := []struct {
		name  string
		input string
		vars  map[string]string
		want  string
	}{
		{
			name:  "no placeholders",
			input: "plain text",
			vars:  nil,
			want:  "plain text",
		},
		{
			name:  "single variable",
			input: "{{ENV_NAME}}-{{CUSTOM}}",
			vars:  map[string]string{"ENV_NAME": "foo", "CUSTOM": "bar"},
			want:  "foo-bar",
		},
		{
			name:  "whitespace inside delimiters",
			input: "{{ ENV_NAME }}",
			vars:  map[string]string{"ENV_NAME": "foo"},
			want:  "foo",
		},
		{
			name:  "repeated variable",
			input: "{{A}}/{{A}}",
			vars:  map[string]string{"A": "x"},
			want:  "x/x",
		},
		{
			name:  "multiline",
			input: "name: {{NAME}}\npath: {{PATH}}\n",
			vars:  map[string]string{"NAME": "dev", "PATH": "/envs/dev"},
			want:  "name: dev\npath: /envs/dev\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Render(tt.input, tt.vars)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Render() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRenderErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		vars    map[string]string
		wantMsg string
	}{
		{
			name:    "undefined variable",
			input:   "hello {{UNDEFINED_VAR}}",
			vars:    map[string]string{},
			wantMsg: "undefined variable",
		},
		{
			name:    "unclosed expression",
			input:   "hello {{NAME",
			vars:    map[string]string{"NAME": "x"},
			wantMsg: "unclosed",
		},
		{
			name:    "empty expression",
			input:   "hello {{}}",
			vars:    map[string]string{},
			wantMsg: "empty",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Render(tt.input, tt.vars)
			if err == nil {
				t.Fatal("expected error")
			}
			var terr *Error
			if !errors.As(err, &terr) {
				t.Fatalf("expected *Error, got %T", err)
			}
			if !strings.Contains(terr.Msg, tt.wantMsg) {
				t.Errorf("error %q does not mention %q", terr.Msg, tt.wantMsg)
			}
		})
	}
}

func TestErrorIncludesPath(t *testing.T) {
	err := &Error{Path: "/tmp/conf.yml.template", Msg: "undefined variable \"X\""}
	if !strings.Contains(err.Error(), "/tmp/conf.yml.template") {
		t.Errorf("error message %q missing template path", err.Error())
	}
}
