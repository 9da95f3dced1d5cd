package utils

import (
	"sort"
	"strings"
)

/*
	Individual ids end up inside index field names, which may not contain
	some characters nor start with others. The encoding keeps names as
	readable as possible and is reversible.
*/

const FieldNameEscapeChar = '$'

var fieldNameBadLeadingChars = "_-+$"

var fieldNameSpecialChars = map[rune]string{
	'.': "_$dot$_",
	',': "_$comma$_",
	'#': "_$hash$_",
	'*': "_$star$_",
	'(': "_$lp$_",
	')': "_$rp$_",
	'[': "_$lsb$_",
	']': "_$rsb$_",
	'{': "_$lcb$_",
	'}': "_$rcb$_",
}

type fieldNameToken struct {
	encoded  string
	original rune
}

// longest first, so decoding is greedy
var fieldNameTokens = func() []fieldNameToken {
	tokens := make([]fieldNameToken, 0, len(fieldNameSpecialChars))
	for original, encoded := range fieldNameSpecialChars {
		tokens = append(tokens, fieldNameToken{encoded: encoded, original: original})
	}
	sort.Slice(tokens, func(i, j int) bool {
		if len(tokens[i].encoded) != len(tokens[j].encoded) {
			return len(tokens[i].encoded) > len(tokens[j].encoded)
		}
		return tokens[i].encoded < tokens[j].encoded
	})
	return tokens
}()

func EncodeFieldName(name string) string {
	var sb strings.Builder
	for _, c := range name {
		if c == FieldNameEscapeChar {
			sb.WriteRune(FieldNameEscapeChar)
			sb.WriteRune(FieldNameEscapeChar)
		} else if encoded, ok := fieldNameSpecialChars[c]; ok {
			sb.WriteString(encoded)
		} else {
			sb.WriteRune(c)
		}
	}

	encoded := sb.String()
	if len(encoded) > 0 && strings.ContainsRune(fieldNameBadLeadingChars, rune(encoded[0])) {
		return string(FieldNameEscapeChar) + encoded
	}
	return encoded
}

func DecodeFieldName(fieldName string) string {
	escape := string(FieldNameEscapeChar)
	fieldName = strings.TrimPrefix(fieldName, escape)

	var sb strings.Builder
	i := 0
	for i < len(fieldName) {
		rest := fieldName[i:]

		matched := false
		for _, token := range fieldNameTokens {
			if strings.HasPrefix(rest, token.encoded) {
				sb.WriteRune(token.original)
				i += len(token.encoded)
				matched = true
				break
			}
		}
		if matched {
			continue
		}

		if strings.HasPrefix(rest, escape+escape) {
			sb.WriteString(escape)
			i += 2
			continue
		}

		sb.WriteByte(fieldName[i])
		i++
	}
	return sb.String()
}
