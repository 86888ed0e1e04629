package main

import (
	"log"

	"github.com/puretrustgold/puretrust-api/app"
)

func main() {
	if err := app.SetupAndRunServer(); err != nil {
		log.Fatal(err)
	}
}
