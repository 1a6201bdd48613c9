package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
)

func Pretty(obj interface{}) string {
	indentSize := "  "
	buf := new(bytes.Buffer)
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", indentSize)
	if err := enc.Encode(&obj); err != nil {
		return fmt.Sprint(obj)
	}
	return buf.String()
}

func JsonEncode(obj interface{}) string {
	buf := new(bytes.Buffer)
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(&obj); err != nil {
		return fmt.Sprint(obj)
	}
	return string(bytes.TrimRight(buf.Bytes(), " \t\n\v\f\r"))
}

var ShowWarnings = false

func Warning(format string, args ...interface{}) {
	if ShowWarnings {
		fmt.Fprintf(os.Stderr, "[warning] "+format, args...)
	}
}

func Error(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "[error] "+format, args...)
}
