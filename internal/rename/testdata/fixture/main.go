package main

import "fmt"

func main() {
	add(2)
	add(3)
	fmt.Println(d)
	reset()
}
