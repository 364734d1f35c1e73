package main

import (
	"os"

	"github.com/dchandan/cmpnc/internal/app"
)

func main() {
	os.Exit(app.Main())
}
