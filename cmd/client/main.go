package main

import (
	"os"

	"gentle-ai/client/internal/app"
)

func main() {
	os.Exit(app.Run())
}
