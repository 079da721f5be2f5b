package main

import (
	"github.com/nodezero/nodezero-go/cmd/util/cmd"
)

func main() {
	cmd.Execute()
}
