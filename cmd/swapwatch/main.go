package main

import "github.com/vietddude/swapwatch/internal/cli"

func main() {
	cli.Execute()
}
