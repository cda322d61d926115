package main

import "github.com/mailbridge/mailbridge/internal/app"

func main() {
	app.Execute()
}
