package engine

import "strings"

// translate replaces the property names of a raw where or order by clause with
// their columns. Quoted literals and function names are left as they are.
func translate(raw string, columns map[string]string) string {
	if raw == "" {
		return raw
	}
	var sb strings.Builder
	sb.Grow(len(raw) + 16)

	for i := 0; i < len(raw); {
		ch := raw[i]
		switch {
		case ch == '\'':
			end := i + 1
			for end < len(raw) {
				if raw[end] == '\'' {
					if end+1 < len(raw) && raw[end+1] == '\'' {
						end += 2
						continue
					}
					break
				}
				end++
			}
			if end < len(raw) {
				end++
			}
			sb.WriteString(raw[i:end])
			i = end
		case isIdentStart(ch):
			end := i + 1
			for end < len(raw) && isIdentPart(raw[end]) {
				end++
			}
			word := raw[i:end]
			if col, ok := columns[word]; ok && !isFunctionCall(raw, end) {
				sb.WriteString(col)
			} else {
				sb.WriteString(word)
			}
			i = end
		default:
			sb.WriteByte(ch)
			i++
		}
	}
	return sb.String()
}

func isIdentStart(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isIdentPart(ch byte) bool {
	return isIdentStart(ch) || ch == '.' || (ch >= '0' && ch <= '9')
}

func isFunctionCall(raw string, pos int) bool {
	for pos < len(raw) && raw[pos] == ' ' {
		pos++
	}
	return pos < len(raw) && raw[pos] == '('
}
