package parser

import "strconv"

// parseIntLiteral converts the decimal text the lexer produces for every
// integer literal -- regardless of whether the source spelled it in
// decimal, octal ("&..."), or hexadecimal ("$...") -- into its value.
func parseIntLiteral(text string) (int64, error) {
	return strconv.ParseInt(text, 10, 64)
}
