package main

import (
	"fmt"
	"os"

	"github.com/buildaudit/buildaudit/cmd"
)

func main() {
	if err := cmd.Command().Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
