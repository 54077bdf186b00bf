package generate

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"text/template"

	"rcconf-manager/core/rcconf"
	"rcconf-manager/core/utils"
)

// Env is the data a template is rendered with.
type Env struct {
	// Name is the managed file being rendered.
	Name string
	// Vars holds the effective rc.conf values: defaults with overrides applied.
	Vars map[string]string
	// Overrides holds only the database values.
	Overrides map[string]string
}

// Renderer turns template source into file content.
type Renderer interface {
	Render(ctx context.Context, tpl Template, src []byte, env Env) ([]byte, error)
}

// DefaultRenderers returns the renderers keyed by template extension.
func DefaultRenderers() map[string]Renderer {
	return map[string]Renderer{
		".rcconf": RCConfRenderer{},
		".tmpl":   TextRenderer{},
		".shell":  ShellRenderer{Shell: "/bin/sh"},
	}
}

// RCConfRenderer parses the template as rc.conf defaults and applies the
// overrides. Comments and layout of the template are kept.
type RCConfRenderer struct{}

func (RCConfRenderer) Render(_ context.Context, tpl Template, src []byte, env Env) ([]byte, error) {
	doc, err := rcconf.Parse(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("template %s: %w", tpl.Name, err)
	}
	return doc.Overlay(env.Overrides).Bytes(), nil
}

// TextRenderer executes the template with text/template. Unknown keys are errors.
type TextRenderer struct{}

func (TextRenderer) Render(_ context.Context, tpl Template, src []byte, env Env) ([]byte, error) {
	t, err := template.New(tpl.Name).
		Option("missingkey=error").
		Funcs(templateFuncs).
		Parse(string(src))
	if err != nil {
		return nil, fmt.Errorf("template %s: %w", tpl.Name, err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, env); err != nil {
		return nil, fmt.Errorf("template %s: %w", tpl.Name, err)
	}
	return buf.Bytes(), nil
}

var templateFuncs = template.FuncMap{
	"enabled": utils.ToBool,
	"join":    strings.Join,
	"quote":   rcconf.Quote,
	"rcconf":  marshalMap,
	"words":   strings.Fields,
	"yesno":   yesNo,
}

func marshalMap(m map[string]string) string {
	return string(rcconf.Marshal(m))
}

func yesNo(v any) string {
	return utils.ToString(utils.ToBool(v))
}

// reservedShellVars control how the shell itself runs and are never taken
// from rc.conf values.
var reservedShellVars = map[string]struct{}{
	"BASH_ENV": {}, "CDPATH": {}, "ENV": {}, "ETC_FILE": {}, "HOME": {},
	"IFS": {}, "LANG": {}, "LOGNAME": {}, "OLDPWD": {}, "PATH": {},
	"PS1": {}, "PS2": {}, "PS4": {}, "PWD": {}, "SHELL": {},
	"SHELLOPTS": {}, "TMPDIR": {}, "USER": {},
}

func reservedShellVar(k string) bool {
	if _, ok := reservedShellVars[k]; ok {
		return true
	}
	return strings.HasPrefix(k, "LC_") || strings.HasPrefix(k, "LD_") || strings.HasPrefix(k, "DYLD_")
}

// ShellRenderer runs the template as a shell script and uses its standard
// output. The effective values are exported as environment variables, except
// names that control the shell such as PATH and IFS.
type ShellRenderer struct {
	Shell string
}

func (r ShellRenderer) Render(ctx context.Context, tpl Template, src []byte, env Env) ([]byte, error) {
	cmd := exec.CommandContext(ctx, r.Shell, "-s")
	cmd.Stdin = bytes.NewReader(src)
	if tpl.Path != "" {
		cmd.Dir = filepath.Dir(tpl.Path)
	}

	keys := make([]string, 0, len(env.Vars))
	for k := range env.Vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	cmd.Env = append(os.Environ(), "ETC_FILE="+env.Name)
	for _, k := range keys {
		if reservedShellVar(k) {
			continue
		}
		cmd.Env = append(cmd.Env, k+"="+env.Vars[k])
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return nil, fmt.Errorf("template %s: %w", tpl.Name, err)
		}
		return nil, fmt.Errorf("template %s: %w: %s", tpl.Name, err, msg)
	}
	return stdout.Bytes(), nil
}
