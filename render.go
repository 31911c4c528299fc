package main

import (
	"bytes"
	"fmt"
	"html"
	"math"
	"unicode/utf8"

	formatterHtml "github.com/alecthomas/chroma/formatters/html"
	"github.com/alecthomas/chroma/lexers"
	"github.com/alecthomas/chroma/styles"
)

// renderBlobPage turns raw blob bytes into the standalone page stored in
// the object cache. The output is a pure function of the content: the
// lexer is chosen by content analysis, never by filename, so two blobs
// with the same hash always render byte-identically no matter which
// paths reference them.
func renderBlobPage(content []byte) ([]byte, error) {
	text := string(content)

	body := "binary file, cannot display"
	if isTextFile(text) {
		rendered, err := highlight(text)
		if err != nil {
			return nil, err
		}
		body = rendered
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<!doctype html>
<html>
<head>
<meta charset="utf-8">
<link rel="stylesheet" href="/main.css">
<link rel="stylesheet" href="/syntax.css">
</head>
<body class="object">
%s
</body>
</html>
`, body)
	return buf.Bytes(), nil
}

// converts blob contents to pretty formatted code
func highlight(text string) (string, error) {
	formatter := formatterHtml.New(
		formatterHtml.WithLineNumbers(true),
		formatterHtml.LinkableLineNumbers(true, "L"),
		formatterHtml.WithClasses(true),
	)
	lexer := lexers.Analyse(text)
	if lexer == nil {
		lexer = lexers.Get("plaintext")
	}
	iterator, err := lexer.Tokenise(nil, text)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	err = formatter.Format(&buf, styles.Fallback, iterator)
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

// isText reports whether a significant prefix of s looks like correct UTF-8;
// that is, if it is likely that s is human-readable text.
func isText(s string) bool {
	const max = 1024 // at least utf8.UTFMax
	if len(s) > max {
		s = s[0:max]
	}
	for i, c := range s {
		if i+utf8.UTFMax > len(s) {
			// last char may be incomplete - ignore
			break
		}
		if c == 0xFFFD || c < ' ' && c != '\n' && c != '\t' && c != '\f' && c != '\r' {
			// decoding error or control character - not a text file
			return false
		}
	}
	return true
}

// isTextFile reports whether a significant chunk of the content looks
// like correct UTF-8; that is, if it is likely human-readable text.
func isTextFile(text string) bool {
	num := math.Min(float64(len(text)), 1024)
	return isText(text[0:int(num)])
}

func escape(s string) string {
	return html.EscapeString(s)
}
