package web

import (
	"html/template"
	"time"

	"github.com/GoEventHub/GoEventHub/internal/web/handler"
)

const (
	dateLayout     = "Mon, 02 Jan 2006"
	dateTimeLayout = "Mon, 02 Jan 2006 15:04"
	timeLayout     = "15:04"
)

// templateFuncs are the helpers available to every page template.
func templateFuncs() map[string]interface{} {
	return map[string]interface{}{
		"iterate": func(count int) []int {
			result := make([]int, count)
			for i := range result {
				result[i] = i
			}

			return result
		},
		"add": func(a, b int) int {
			return a + b
		},
		"sub": func(a, b int) int {
			return a - b
		},
		"date":     formatTime(dateLayout),
		"datetime": formatTime(dateTimeLayout),
		"clock":    formatTime(timeLayout),
		"deref": func(v *int) int {
			if v == nil {
				return 0
			}

			return *v
		},
		"media": func(name string) string {
			if name == "" {
				return ""
			}

			return handler.MediaPath + "/" + name
		},
		"capitalize": handler.Capitalize,
		// css passes admin provided styles through unescaped, only admins can edit them
		"css": func(s string) template.CSS {
			return template.CSS(s) //nolint:gosec // admin controlled
		},
	}
}

// formatTime accepts time.Time and *time.Time, a nil pointer renders empty.
func formatTime(layout string) func(v interface{}) string {
	return func(v interface{}) string {
		switch t := v.(type) {
		case time.Time:
			if t.IsZero() {
				return ""
			}

			return t.Local().Format(layout)
		case *time.Time:
			if t == nil || t.IsZero() {
				return ""
			}

			return t.Local().Format(layout)
		default:
			return ""
		}
	}
}
