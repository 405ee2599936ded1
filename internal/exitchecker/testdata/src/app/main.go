package main

import (
	"fmt"
	"os"
)

type runner struct{}

func (runner) Exit(code int) {}

func helper() {
	os.Exit(2)
}

func main() {
	defer fmt.Println("flush buffer")

	runner{}.Exit(0)

	go func() {
		os.Exit(3)
	}()

	helper()
	os.Exit(1) // want "calling os.Exit from main"
}
