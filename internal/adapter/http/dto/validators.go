package dto

import (
	"html"
	"reflect"
	"regexp"
	"strings"
	"unicode"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Receipt references are printed on paper slips: alphanumeric first, then
// alphanumerics and the separators - _ . / #.
var receiptRefRe = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_\-./#]*$`)

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("receipt_ref", func(fl validator.FieldLevel) bool {
			return receiptRefRe.MatchString(fl.Field().String())
		})
	}
}

// SanitizeStruct cleans every settable string and *string field of the
// struct pointed to by v. Fields tagged `sanitize:"-"` are left alone.
func SanitizeStruct(v interface{}) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return
	}
	elem := rv.Elem()
	for _, sf := range reflect.VisibleFields(elem.Type()) {
		if sf.Tag.Get("sanitize") == "-" {
			continue
		}
		f := elem.FieldByIndex(sf.Index)
		if !f.CanSet() {
			continue
		}
		if f.Kind() == reflect.Ptr && !f.IsNil() {
			f = f.Elem()
		}
		if f.Kind() == reflect.String {
			f.SetString(sanitize(f.String()))
		}
	}
}

// sanitize trims, strips control characters other than newlines, and HTML-escapes s.
func sanitize(s string) string {
	s = strings.Map(func(r rune) rune {
		if r != '\n' && unicode.IsControl(r) {
			return -1
		}
		return r
	}, strings.TrimSpace(s))
	return html.EscapeString(s)
}
