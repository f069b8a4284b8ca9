package main

import (
	"os"

	"horse.fit/camtranslate/internal/app"
)

func main() {
	os.Exit(app.Run(os.Args[1:]))
}
