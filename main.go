package main

import "github.com/peekknuf/sage/cmd"

func main() {
	cmd.Execute()
}
