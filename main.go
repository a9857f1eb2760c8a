package main

import (
	"mantrafm/cmd"
)

func main() {
	cmd.Execute()
}
