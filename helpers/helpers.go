package helpers

import (
	// Go Internal Packages
	"encoding/json"
	"fmt"
	"io"
)

// PrintStruct prints a given struct in pretty format with indent
func PrintStruct(w io.Writer, v any) {
	res, _ := json.MarshalIndent(v, "", "  ")
	fmt.Fprintln(w, string(res))
}
