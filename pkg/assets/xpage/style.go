package xpage

import (
	"maps"
	"slices"
	"strings"
)

const backgroundImage = "background-image"

// parseStyle 解析内联 style 属性为声明表，属性名统一为小写。
func parseStyle(style string) map[string]string {
	out := make(map[string]string)
	for _, decl := range splitDeclarations(style) {
		name, value, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		name = strings.ToLower(strings.TrimSpace(name))
		value = strings.TrimSpace(value)
		if name == "" || value == "" {
			continue
		}
		out[name] = value
	}
	return out
}

// splitDeclarations 按 ";" 切分声明，引号和括号内的 ";" 不作为分隔符。
func splitDeclarations(style string) []string {
	var (
		out   []string
		quote byte
		depth int
		start int
	)
	for i := 0; i < len(style); i++ {
		ch := style[i]
		switch {
		case quote != 0:
			if ch == '\\' {
				i++
			} else if ch == quote {
				quote = 0
			}
		case ch == '"' || ch == '\'':
			quote = ch
		case ch == '(':
			depth++
		case ch == ')' && depth > 0:
			depth--
		case ch == ';' && depth == 0:
			out = append(out, style[start:i])
			start = i + 1
		}
	}
	return append(out, style[start:])
}

// formatStyle 按属性名排序输出内联 style。
func formatStyle(decls map[string]string) string {
	var b strings.Builder
	for i, name := range slices.Sorted(maps.Keys(decls)) {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(name)
		b.WriteString(": ")
		b.WriteString(decls[name])
	}
	return b.String()
}

// cssURLValue 提取 url(...) 中的地址。不是单个 url() 时返回 false。
func cssURLValue(value string) (string, bool) {
	v := strings.TrimSpace(value)
	if len(v) < 5 || !strings.EqualFold(v[:4], "url(") || !strings.HasSuffix(v, ")") {
		return "", false
	}
	v = strings.TrimSpace(v[4 : len(v)-1])
	if n := len(v); n >= 2 && (v[0] == '"' || v[0] == '\'') && v[n-1] == v[0] {
		v = v[1 : n-1]
	}
	v = strings.NewReplacer(`\"`, `"`, `\'`, `'`, `\\`, `\`).Replace(v)
	if v == "" {
		return "", false
	}
	return v, true
}
