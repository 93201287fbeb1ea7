package main

import (
	"os"

	"github.com/qadesk-admin/qadesk-admin/app"
)

func main() {
	err := app.Execute()
	if err != nil {
		os.Exit(1)
	}
}
