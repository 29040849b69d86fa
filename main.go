package main

import (
	"github.com/casapress/casapress/cmd"
)

func main() {
	cmd.Execute()
}
