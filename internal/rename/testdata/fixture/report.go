package main

import "fmt"

// Report collects lines for display
type Report struct {
	Lines []string
}

func (r *Report) Record() {
	r.Lines = append(r.Lines, fmt.Sprintf("total=%d", d))
}
