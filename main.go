package main

import (
	"os"

	"github.com/GoEventHub/GoEventHub/app"
)

func main() {
	err := app.Execute()
	if err != nil {
		os.Exit(1)
	}
}
