package catalog

import (
	"fmt"

	"github.com/pipebase/pipebuilder-sub000/pkg/pberrors"
)

// NameValidator checks that every visited entry's name is non-empty,
// snake_lower_case, and unique across the whole catalog list.
type NameValidator struct {
	names []string
}

func NewNameValidator() *NameValidator {
	return &NameValidator{}
}

func (v *NameValidator) Visit(e Entry) error {
	v.names = append(v.names, e.Name)
	return nil
}

func (v *NameValidator) Validate() error {
	seen := make(map[string]struct{}, len(v.names))
	var errs []string
	for i, name := range v.names {
		switch {
		case name == "":
			errs = append(errs, fmt.Sprintf(".[%d], empty catalog name", i))
		case !isSnakeLowerCase(name):
			errs = append(errs, fmt.Sprintf(".[%d], catalog name %q not in snake or lower case", i, name))
		default:
			if _, dup := seen[name]; dup {
				errs = append(errs, fmt.Sprintf(".[%d], catalog name %q duplicate", i, name))
			}
			seen[name] = struct{}{}
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return pberrors.InvalidRequestf("catalog name validation failed: %v", errs)
}

// isSnakeLowerCase rejects uppercase, leading underscore, consecutive
// underscores, and any non-ASCII leading rune.
func isSnakeLowerCase(s string) bool {
	underscore := true
	initial := true
	for _, c := range s {
		if initial && c > 127 {
			return false
		}
		initial = false
		switch {
		case c >= '0' && c <= '9':
			underscore = false
		case c >= 'a' && c <= 'z':
			underscore = false
		case c == '_':
			if underscore {
				return false
			}
			underscore = true
		default:
			return false
		}
	}
	return true
}
