package bored

import "strings"

// namedReferences is the fixed set of character references the renderer
// decodes. Anything else is printed back verbatim.
var namedReferences = map[string]string{
	"&lt;": "<",
	"&gt;": ">",
}

// No reference name is longer than 23 characters plus the two delimiters;
// past that the buffer is dumped as-is.
const maxReferenceLen = 25

// Render strips markup tags from source and decodes named character
// references. With onlyBody set, only text inside the body element is
// emitted.
func Render(source string, onlyBody bool) string {
	var (
		out       strings.Builder
		tag       strings.Builder
		reference strings.Builder

		inAngle bool
		inBody  bool
	)

	for _, ch := range source {
		switch {
		case ch == '<':
			inAngle = true
		case ch == '>':
			switch tag.String() {
			case "body":
				inBody = true
			case "/body":
				inBody = false
			}
			tag.Reset()
			inAngle = false
		case inAngle:
			tag.WriteRune(ch)
		default:
			if onlyBody && !inBody {
				continue
			}
			if ch == '&' && reference.Len() == 0 {
				reference.WriteRune(ch)
				continue
			}
			if reference.Len() > 0 {
				if reference.Len() > maxReferenceLen {
					out.WriteString(reference.String())
					reference.Reset()
					continue
				}
				reference.WriteRune(ch)
				if ch == ';' {
					if decoded, ok := namedReferences[reference.String()]; ok {
						out.WriteString(decoded)
					} else {
						out.WriteString(reference.String())
					}
					reference.Reset()
				}
				continue
			}
			out.WriteRune(ch)
		}
	}

	// A dangling reference buffer is emitted as-is.
	if reference.Len() > 0 {
		out.WriteString(reference.String())
	}
	return out.String()
}

var markupEscaper = strings.NewReplacer("<", "&lt;", ">", "&gt;")

// Escape turns markup delimiters into character references so that Render
// prints the document source instead of interpreting it. Used for
// view-source loads.
func Escape(source string) string {
	return markupEscaper.Replace(source)
}
