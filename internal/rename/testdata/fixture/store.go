package main

// d is the running total
var d int

func add(n int) int {
	d += n
	return d
}

func reset() {
	d = 0
}
